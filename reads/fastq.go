package reads

import (
	"bufio"
	"io"

	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// FastqReader decodes 4-line FASTQ records, matching the validation level
// of grailbio/bio's encoding/fastq.Scanner: it requires the id line to
// begin with '@' and the separator line to begin with '+', but does not
// validate seq/qual lengths further.
type FastqReader struct {
	scanner   *bufio.Scanner
	exhausted bool
}

// NewFastqReader constructs a FastqReader over r.
func NewFastqReader(r io.Reader) *FastqReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	return &FastqReader{scanner: scanner}
}

// Next returns the next FASTQ record.
func (f *FastqReader) Next() (Record, error) {
	if f.exhausted {
		return Record{}, io.EOF
	}
	if !f.scanner.Scan() {
		f.exhausted = true
		if err := f.scanner.Err(); err != nil {
			return Record{}, mtsverrors.FromIo(err)
		}
		return Record{}, io.EOF
	}
	idLine := f.scanner.Text()
	if len(idLine) == 0 || idLine[0] != '@' {
		return Record{}, mtsverrors.Wrap(mtsverrors.FastqReadError, nil, "expected '@' id line")
	}
	id := firstToken([]byte(idLine[1:]))
	if id == "" {
		return Record{}, mtsverrors.New(mtsverrors.MissingHeader, "")
	}

	if !f.scanner.Scan() {
		f.exhausted = true
		return Record{}, mtsverrors.Wrap(mtsverrors.FastqReadError, f.scanner.Err(), "truncated FASTQ record")
	}
	seq := append([]byte(nil), f.scanner.Bytes()...)

	if !f.scanner.Scan() {
		f.exhausted = true
		return Record{}, mtsverrors.Wrap(mtsverrors.FastqReadError, f.scanner.Err(), "truncated FASTQ record")
	}
	sepLine := f.scanner.Text()
	if len(sepLine) == 0 || sepLine[0] != '+' {
		return Record{}, mtsverrors.Wrap(mtsverrors.FastqReadError, nil, "expected '+' separator line")
	}

	if !f.scanner.Scan() {
		f.exhausted = true
		return Record{}, mtsverrors.Wrap(mtsverrors.FastqReadError, f.scanner.Err(), "truncated FASTQ record")
	}
	// Quality line is decoded but unused by the binner (spec.md Non-goals
	// exclude quality-aware scoring).

	return Record{Id: id, Seq: seq}, nil
}
