package collapse

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// shardBlockSize is the uncompressed size, in bytes, accumulated before a
// block is snappy-compressed and flushed to a spill shard.
const shardBlockSize = 1 << 20

// shardWriter appends result lines to a snappy-compressed spill file in
// fixed-size blocks, mirroring cmd/bio-bam-sort/sorter/sortshard.go's use
// of snappy.Encode/Decode over discrete blocks rather than a streaming
// compressor.
type shardWriter struct {
	f   *os.File
	buf []byte // uncompressed block accumulator: length-prefixed lines
}

func newShardWriter(path string) (*shardWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "create spill shard")
	}
	return &shardWriter{f: f}, nil
}

func (w *shardWriter) add(line string) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(line)))
	w.buf = append(w.buf, lenBuf[:]...)
	w.buf = append(w.buf, line...)
	if len(w.buf) >= shardBlockSize {
		return w.flushBlock()
	}
	return nil
}

func (w *shardWriter) flushBlock() error {
	if len(w.buf) == 0 {
		return nil
	}
	compressed := snappy.Encode(nil, w.buf)
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(w.buf)))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(len(compressed)))
	if _, err := w.f.Write(hdr[:]); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "write spill shard block header")
	}
	if _, err := w.f.Write(compressed); err != nil {
		return mtsverrors.Wrap(mtsverrors.Io, err, "write spill shard block")
	}
	w.buf = w.buf[:0]
	return nil
}

func (w *shardWriter) close() error {
	if err := w.flushBlock(); err != nil {
		return err
	}
	return w.f.Close()
}

// shardReader reads back lines written by shardWriter, one block at a
// time, serving individual lines out of each decoded block.
type shardReader struct {
	f        *os.File
	block    []byte
	blockPos int
	cur      string
}

func newShardReader(path string) (*shardReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mtsverrors.Wrap(mtsverrors.Io, err, "open spill shard")
	}
	return &shardReader{f: f}, nil
}

func (r *shardReader) fillBlock() (bool, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r.f, hdr[:]); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, mtsverrors.Wrap(mtsverrors.Io, err, "read spill shard block header")
	}
	uncompressedLen := binary.LittleEndian.Uint32(hdr[0:4])
	compressedLen := binary.LittleEndian.Uint32(hdr[4:8])
	compressed := make([]byte, compressedLen)
	if _, err := io.ReadFull(r.f, compressed); err != nil {
		return false, mtsverrors.Wrap(mtsverrors.Io, err, "read spill shard block")
	}
	block := make([]byte, uncompressedLen)
	decoded, err := snappy.Decode(block, compressed)
	if err != nil {
		return false, mtsverrors.Wrap(mtsverrors.Serialize, err, "decode spill shard block")
	}
	r.block = decoded
	r.blockPos = 0
	return true, nil
}

// scan advances to the next line, returning false at end of shard.
func (r *shardReader) scan() (bool, error) {
	for r.blockPos >= len(r.block) {
		ok, err := r.fillBlock()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	n := binary.LittleEndian.Uint32(r.block[r.blockPos : r.blockPos+4])
	start := r.blockPos + 4
	r.cur = string(r.block[start : start+int(n)])
	r.blockPos = start + int(n)
	return true, nil
}

func (r *shardReader) line() string { return r.cur }

func (r *shardReader) closeFile() error { return r.f.Close() }
