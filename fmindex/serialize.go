package fmindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/dgryski/go-farm"
	"github.com/pkg/errors"

	"github.com/FofanovLab/mtsv-tools/ids"
	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// magic is the fixed 4-byte header identifying an mtsv index file, per
// spec.md §6. version is bumped whenever the on-disk layout changes.
var magic = [4]byte{'M', 'T', 'S', 'V'}

const indexVersion uint32 = 1

// Bin mirrors corpus.Bin without importing the corpus package, to keep
// fmindex's dependency graph one-directional (corpus depends on fmindex's
// Sentinel conventions conceptually, but not vice versa at the type
// level); the build package fills Index.Bins from corpus.Bin, and
// cmd/mtsv-bin converts them back to corpus.Bin after loading an index.
type Bin struct {
	Gi    ids.Gi
	TaxId ids.TaxId
	Start uint64
	End   uint64
}

// Index is the complete on-disk representation of a built mtsv index:
// magic, version, the sample intervals used for Occ and the suffix array,
// the bin table, the concatenated reference sequence, the BWT, the less
// table, the sampled Occ table, and the sampled suffix array. Field order
// here is the wire order. Sequence is kept verbatim (not reconstructed
// from the BWT at load time) because candidate scoring and edit-distance
// confirmation need direct random-access substrings of it, mirroring
// original_source's MGIndex, which likewise serializes its concatenated
// `sequences` field alongside the FM-index rather than inverting the BWT
// on every load.
type Index struct {
	KOcc     uint32
	KSA      uint32
	Bins     []Bin
	Sequence []byte
	BWT      []byte
	Less     Less
	Occ      *Occ
	SA       *SampledSA
}

// writeUint64 and readUint64 are small helpers kept alongside the
// length-prefixed framing used throughout, mirroring the encoding/bam
// index reader/writer's one-field-at-a-time binary.Read/Write style.
func writeUint64(w io.Writer, v uint64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readUint64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

// Write serializes idx to w as: magic, version, k_occ, k_sa, length-
// prefixed bin table, length-prefixed sequence, length-prefixed BWT, the
// 256-entry less table,
// the sampled Occ table, the sampled suffix array, and a trailing
// FarmHash-64 checksum of everything written before it.
func Write(w io.Writer, idx *Index) error {
	h := newChecksumWriter(w)

	if _, err := h.Write(magic[:]); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write magic")
	}
	if err := binary.Write(h, binary.LittleEndian, indexVersion); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write version")
	}
	if err := binary.Write(h, binary.LittleEndian, idx.KOcc); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write k_occ")
	}
	if err := binary.Write(h, binary.LittleEndian, idx.KSA); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write k_sa")
	}

	if err := binary.Write(h, binary.LittleEndian, uint64(len(idx.Bins))); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write bin count")
	}
	for _, b := range idx.Bins {
		if err := binary.Write(h, binary.LittleEndian, uint32(b.Gi)); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "index: write bin gi")
		}
		if err := binary.Write(h, binary.LittleEndian, uint32(b.TaxId)); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "index: write bin taxid")
		}
		if err := binary.Write(h, binary.LittleEndian, b.Start); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "index: write bin start")
		}
		if err := binary.Write(h, binary.LittleEndian, b.End); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "index: write bin end")
		}
	}

	if err := binary.Write(h, binary.LittleEndian, uint64(len(idx.Sequence))); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write sequence length")
	}
	if _, err := h.Write(idx.Sequence); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write sequence")
	}

	if err := binary.Write(h, binary.LittleEndian, uint64(len(idx.BWT))); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write bwt length")
	}
	if _, err := h.Write(idx.BWT); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write bwt")
	}

	for _, v := range idx.Less {
		if err := binary.Write(h, binary.LittleEndian, v); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "index: write less table")
		}
	}

	if err := writeOcc(h, idx.Occ); err != nil {
		return err
	}
	if err := writeSampledSA(h, idx.SA); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, h.Sum64())
}

func writeOcc(w io.Writer, o *Occ) error {
	if err := binary.Write(w, binary.LittleEndian, o.SampleInterval); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write occ interval")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(o.Alphabet))); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write occ alphabet length")
	}
	if _, err := w.Write(o.Alphabet); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write occ alphabet")
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(o.Checkpoints))); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write occ checkpoint count")
	}
	for _, v := range o.Checkpoints {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "index: write occ checkpoint")
		}
	}
	return nil
}

func writeSampledSA(w io.Writer, sa *SampledSA) error {
	if err := binary.Write(w, binary.LittleEndian, sa.SampleInterval); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write sa interval")
	}
	if err := binary.Write(w, binary.LittleEndian, sa.CorpusLen); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write sa corpus length")
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(sa.Sampled))); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "index: write sa sample count")
	}

	// sa.Sampled is a map, whose iteration order Go deliberately
	// randomizes; write the entries in ascending index order so that
	// Write is deterministic and two runs over an identical Index produce
	// byte-identical output (spec.md §8 invariants 2 and 4).
	indices := make([]uint64, 0, len(sa.Sampled))
	for idx := range sa.Sampled {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		if err := binary.Write(w, binary.LittleEndian, idx); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "index: write sa sample index")
		}
		if err := binary.Write(w, binary.LittleEndian, sa.Sampled[idx]); err != nil {
			return mtsverrors.Wrap(mtsverrors.Io, err, "index: write sa sample position")
		}
	}
	return nil
}

// Read parses an Index previously written by Write, verifying the magic,
// version, and trailing FarmHash-64 checksum.
func Read(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)
	h := newChecksumReader(br)

	var gotMagic [4]byte
	if _, err := io.ReadFull(h, gotMagic[:]); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read magic")
	}
	if gotMagic != magic {
		return nil, mtsverrors.New(mtsverrors.InvalidHeader, fmt.Sprintf("bad index magic %v", gotMagic))
	}

	var version uint32
	if err := binary.Read(h, binary.LittleEndian, &version); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read version")
	}
	if version != indexVersion {
		return nil, mtsverrors.New(mtsverrors.InvalidHeader, fmt.Sprintf("unsupported index version %d", version))
	}

	idx := &Index{}
	if err := binary.Read(h, binary.LittleEndian, &idx.KOcc); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read k_occ")
	}
	if err := binary.Read(h, binary.LittleEndian, &idx.KSA); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read k_sa")
	}

	var binCount uint64
	if err := binary.Read(h, binary.LittleEndian, &binCount); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read bin count")
	}
	idx.Bins = make([]Bin, binCount)
	for i := range idx.Bins {
		var gi, taxID uint32
		var start, end uint64
		if err := binary.Read(h, binary.LittleEndian, &gi); err != nil {
			return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read bin gi")
		}
		if err := binary.Read(h, binary.LittleEndian, &taxID); err != nil {
			return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read bin taxid")
		}
		if err := binary.Read(h, binary.LittleEndian, &start); err != nil {
			return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read bin start")
		}
		if err := binary.Read(h, binary.LittleEndian, &end); err != nil {
			return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read bin end")
		}
		idx.Bins[i] = Bin{Gi: ids.Gi(gi), TaxId: ids.TaxId(taxID), Start: start, End: end}
	}

	var seqLen uint64
	if err := binary.Read(h, binary.LittleEndian, &seqLen); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read sequence length")
	}
	idx.Sequence = make([]byte, seqLen)
	if _, err := io.ReadFull(h, idx.Sequence); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read sequence")
	}

	var bwtLen uint64
	if err := binary.Read(h, binary.LittleEndian, &bwtLen); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read bwt length")
	}
	idx.BWT = make([]byte, bwtLen)
	if _, err := io.ReadFull(h, idx.BWT); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read bwt")
	}

	for i := range idx.Less {
		if err := binary.Read(h, binary.LittleEndian, &idx.Less[i]); err != nil {
			return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read less table")
		}
	}

	occ, err := readOcc(h)
	if err != nil {
		return nil, err
	}
	idx.Occ = occ

	sa, err := readSampledSA(h)
	if err != nil {
		return nil, err
	}
	idx.SA = sa

	want := h.Sum64()
	var got uint64
	if err := binary.Read(br, binary.LittleEndian, &got); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read checksum")
	}
	if got != want {
		return nil, mtsverrors.New(mtsverrors.Serialize, "index checksum mismatch, file may be corrupt")
	}

	return idx, nil
}

func readOcc(r io.Reader) (*Occ, error) {
	o := &Occ{}
	if err := binary.Read(r, binary.LittleEndian, &o.SampleInterval); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read occ interval")
	}
	var alphaLen uint32
	if err := binary.Read(r, binary.LittleEndian, &alphaLen); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read occ alphabet length")
	}
	o.Alphabet = make([]byte, alphaLen)
	if _, err := io.ReadFull(r, o.Alphabet); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read occ alphabet")
	}
	o.buildSymbolIndex()

	var checkpointCount uint64
	if err := binary.Read(r, binary.LittleEndian, &checkpointCount); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read occ checkpoint count")
	}
	o.Checkpoints = make([]uint64, checkpointCount)
	for i := range o.Checkpoints {
		if err := binary.Read(r, binary.LittleEndian, &o.Checkpoints[i]); err != nil {
			return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read occ checkpoint")
		}
	}
	return o, nil
}

func readSampledSA(r io.Reader) (*SampledSA, error) {
	sa := &SampledSA{Sampled: make(map[uint64]uint64)}
	if err := binary.Read(r, binary.LittleEndian, &sa.SampleInterval); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read sa interval")
	}
	if err := binary.Read(r, binary.LittleEndian, &sa.CorpusLen); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read sa corpus length")
	}
	var sampleCount uint64
	if err := binary.Read(r, binary.LittleEndian, &sampleCount); err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read sa sample count")
	}
	for n := uint64(0); n < sampleCount; n++ {
		var idx, pos uint64
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read sa sample index")
		}
		if err := binary.Read(r, binary.LittleEndian, &pos); err != nil {
			return nil, mtsverrors.Wrap(mtsverrors.Io, err, "index: read sa sample position")
		}
		sa.Sampled[idx] = pos
	}
	return sa, nil
}

// checksumWriter passes every byte written through it on to w and keeps a
// copy in memory; Sum64 hashes that copy with farm.Hash64WithSeed (seed 0,
// matching fusion/kmer_index.go's use of it), so the trailing checksum
// covers everything written before it.
type checksumWriter struct {
	w    io.Writer
	buf  []byte
	seed uint64
	sum  uint64
	init bool
}

func newChecksumWriter(w io.Writer) *checksumWriter {
	return &checksumWriter{w: w}
}

func (c *checksumWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "checksum write")
	}
	c.buf = append(c.buf, p[:n]...)
	return n, nil
}

func (c *checksumWriter) Sum64() uint64 {
	return farm.Hash64WithSeed(c.buf, 0)
}

// checksumReader mirrors checksumWriter for the read side, accumulating
// every byte read so the computed checksum can be compared against the
// trailing stored value.
type checksumReader struct {
	r   io.Reader
	buf []byte
}

func newChecksumReader(r io.Reader) *checksumReader {
	return &checksumReader{r: r}
}

func (c *checksumReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.buf = append(c.buf, p[:n]...)
	}
	return n, err
}

func (c *checksumReader) Sum64() uint64 {
	return farm.Hash64WithSeed(c.buf, 0)
}
