// Package build implements the index-build orchestrator: parsing a FASTA
// reference database (optionally resolving headers through a mapping
// file), constructing the corpus and FM-index, and serializing the
// result, per spec.md §4.1 and the original mtsv builder.rs/MGIndex::new.
package build

import (
	"io"

	"github.com/FofanovLab/mtsv-tools/corpus"
	"github.com/FofanovLab/mtsv-tools/fmindex"
	"github.com/FofanovLab/mtsv-tools/header"
	"github.com/FofanovLab/mtsv-tools/mapping"
	"github.com/FofanovLab/mtsv-tools/mtsverrors"
	"github.com/FofanovLab/mtsv-tools/reads"
	"github.com/grailbio/base/log"
)

// Params controls index construction.
type Params struct {
	// SampleIntervalOcc is k_occ, the Occ table's checkpoint spacing.
	SampleIntervalOcc uint32
	// SampleIntervalSA is k_sa, the suffix array's sampling spacing.
	SampleIntervalSA uint32
	// Mapping resolves FASTA headers to (Gi, TaxId); if nil, headers are
	// parsed directly as "GI-TAXID".
	Mapping mapping.Map
	// SkipMissing, when Mapping is non-nil, skips (rather than errors on)
	// a reference whose header has no mapping entry.
	SkipMissing bool
}

// fromReferences reads every FASTA record from r, resolves its header to
// a (Gi, TaxId) pair, and accumulates it into a corpus.Builder.
func fromReferences(r io.Reader, p Params) (*corpus.Corpus, error) {
	fa := reads.NewFastaReader(r)
	b := corpus.NewBuilder()

	for {
		rec, err := fa.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		gi, taxID, ok, err := header.Resolve(rec.Id, p.Mapping, p.SkipMissing)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		b.Add(gi, taxID, rec.Seq)
	}

	return b.Build(), nil
}

// Index builds the complete on-disk Index structure from a FASTA
// reference stream: the corpus (concatenation + bin table), the suffix
// array, BWT, less table, sampled Occ, and sampled suffix array.
func Index(r io.Reader, p Params) (*fmindex.Index, error) {
	log.Info.Printf("parsing reference FASTA and building corpus...")
	cp, err := fromReferences(r, p)
	if err != nil {
		return nil, err
	}
	if len(cp.Bins) == 0 {
		return nil, mtsverrors.New(mtsverrors.MissingHeader, "no reference sequences parsed from input")
	}

	log.Info.Printf("corpus built: %d bytes, %d references; constructing suffix array...", len(cp.Sequence), len(cp.Bins))
	sa := fmindex.BuildSuffixArray(cp.Sequence)

	log.Info.Printf("suffix array built; deriving BWT and less table...")
	bwt := fmindex.BWT(cp.Sequence, sa)
	less := fmindex.BuildLess(cp.Sequence)

	log.Info.Printf("sampling Occ table (k_occ=%d)...", p.SampleIntervalOcc)
	occ := fmindex.BuildOcc(bwt, p.SampleIntervalOcc)

	log.Info.Printf("sampling suffix array (k_sa=%d)...", p.SampleIntervalSA)
	sampledSA := fmindex.BuildSampledSA(sa, p.SampleIntervalSA)

	bins := make([]fmindex.Bin, len(cp.Bins))
	for i, bin := range cp.Bins {
		bins[i] = fmindex.Bin{Gi: bin.Gi, TaxId: bin.TaxId, Start: bin.Start, End: bin.End}
	}

	return &fmindex.Index{
		KOcc:     p.SampleIntervalOcc,
		KSA:      p.SampleIntervalSA,
		Bins:     bins,
		Sequence: cp.Sequence,
		BWT:      bwt,
		Less:     less,
		Occ:      occ,
		SA:       sampledSA,
	}, nil
}

// WriteIndex builds the index from r and serializes it to w.
func WriteIndex(r io.Reader, w io.Writer, p Params) error {
	idx, err := Index(r, p)
	if err != nil {
		return err
	}
	log.Info.Printf("writing index to disk...")
	return fmindex.Write(w, idx)
}
