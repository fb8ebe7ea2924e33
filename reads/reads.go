// Package reads is the external-collaborator boundary named in the
// specification (FASTA/FASTQ record decoding and gzip transparency are out
// of scope for the core's detailed design). It defines the minimal Record
// iterator interface the pipeline consumes, plus lightweight FASTA/FASTQ
// decoders — in the style of grailbio/bio's encoding/fasta and
// encoding/fastq packages — good enough to drive the pipeline and its
// tests without reimplementing a full-featured sequence I/O library.
package reads

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// Record is a single query read: an id (taken verbatim, up to but not
// including the first run of whitespace for FASTA, or the full first
// token for FASTQ) and its raw sequence bytes.
type Record struct {
	Id  string
	Seq []byte
}

// Reader yields Records in file order until io.EOF.
type Reader interface {
	// Next returns the next Record, or io.EOF when the stream is exhausted.
	Next() (Record, error)
}

// gzipMagic is the two-byte gzip header used to auto-detect compression.
var gzipMagic = [2]byte{0x1f, 0x8b}

// MaybeDecompress wraps r in a gzip reader if the first two bytes match the
// gzip magic number, otherwise returns r unmodified (with any bytes already
// peeked restored via a buffered reader).
func MaybeDecompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, mtsverrors.FromIo(err)
	}
	if len(peek) == 2 && peek[0] == gzipMagic[0] && peek[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, mtsverrors.FromIo(err)
		}
		return gz, nil
	}
	return br, nil
}

// firstToken returns the bytes of line up to (not including) the first
// whitespace rune, matching the FASTA header-parsing convention used
// throughout the corpus builder.
func firstToken(line []byte) string {
	if i := bytes.IndexAny(line, " \t"); i >= 0 {
		return string(line[:i])
	}
	return string(line)
}
