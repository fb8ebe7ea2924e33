package reads

import (
	"bufio"
	"bytes"
	"io"

	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// FastaReader decodes FASTA records, accumulating multi-line sequences
// until the next header or EOF.
type FastaReader struct {
	scanner   *bufio.Scanner
	nextLine  []byte
	haveNext  bool
	exhausted bool
}

// NewFastaReader constructs a FastaReader over r.
func NewFastaReader(r io.Reader) *FastaReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)
	return &FastaReader{scanner: scanner}
}

func (f *FastaReader) readLine() ([]byte, bool) {
	if f.haveNext {
		f.haveNext = false
		return f.nextLine, true
	}
	if !f.scanner.Scan() {
		return nil, false
	}
	return f.scanner.Bytes(), true
}

func (f *FastaReader) pushback(line []byte) {
	cp := make([]byte, len(line))
	copy(cp, line)
	f.nextLine = cp
	f.haveNext = true
}

// Next returns the next FASTA record.
func (f *FastaReader) Next() (Record, error) {
	if f.exhausted {
		return Record{}, io.EOF
	}

	var line []byte
	var ok bool
	for {
		line, ok = f.readLine()
		if !ok {
			f.exhausted = true
			if err := f.scanner.Err(); err != nil {
				return Record{}, mtsverrors.FromIo(err)
			}
			return Record{}, io.EOF
		}
		if len(bytes.TrimSpace(line)) > 0 {
			break
		}
	}

	if line[0] != '>' {
		return Record{}, mtsverrors.New(mtsverrors.InvalidHeader, string(line))
	}
	id := firstToken(line[1:])
	if id == "" {
		return Record{}, mtsverrors.New(mtsverrors.MissingHeader, "")
	}

	var seq []byte
	for {
		line, ok = f.readLine()
		if !ok {
			f.exhausted = true
			break
		}
		if len(line) > 0 && line[0] == '>' {
			f.pushback(line)
			break
		}
		seq = append(seq, bytes.TrimSpace(line)...)
	}

	return Record{Id: id, Seq: seq}, nil
}
