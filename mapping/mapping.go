// Package mapping parses the optional header->(Gi, TaxId) mapping file
// accepted by mtsv-build, in the style of the original mtsv_tools
// parse_header_mapping.
package mapping

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/FofanovLab/mtsv-tools/ids"
	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// Entry is a single resolved mapping target.
type Entry struct {
	Gi    ids.Gi
	TaxId ids.TaxId
}

// Map associates a FASTA header (first whitespace-delimited token) with its
// resolved Gi/TaxId pair.
type Map map[string]Entry

var delimiterCandidates = []rune{',', '\t', ';', '|'}

// detectDelimiter returns the first candidate delimiter that occurs in line,
// or 0 if none do, in which case callers should split on whitespace.
func detectDelimiter(line string) rune {
	for _, candidate := range delimiterCandidates {
		if strings.ContainsRune(line, candidate) {
			return candidate
		}
	}
	return 0
}

func splitLine(line string, delim rune) []string {
	var fields []string
	if delim == 0 {
		fields = strings.Fields(line)
	} else {
		fields = strings.Split(line, string(delim))
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// Parse reads a delimited mapping file with required columns "header",
// "taxid", and "seqid" (or "gi"), column order and delimiter detected from
// the header line. Column names are matched case-insensitively; extra
// columns are ignored.
func Parse(r io.Reader) (Map, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var headerLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			headerLine = line
			break
		}
	}
	if headerLine == "" {
		if err := scanner.Err(); err != nil {
			return nil, mtsverrors.FromIo(err)
		}
		return nil, mtsverrors.New(mtsverrors.InvalidHeader, "empty mapping file")
	}

	delim := detectDelimiter(headerLine)
	rawFields := splitLine(headerLine, delim)
	fields := make([]string, len(rawFields))
	for i, f := range rawFields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}

	headerIdx := indexOf(fields, "header")
	taxidIdx := indexOf(fields, "taxid")
	seqidIdx := indexOfAny(fields, "seqid", "gi")

	if headerIdx < 0 {
		return nil, mtsverrors.New(mtsverrors.InvalidHeader, "missing 'header' column in mapping file")
	}
	if taxidIdx < 0 {
		return nil, mtsverrors.New(mtsverrors.InvalidHeader, "missing 'taxid' column in mapping file")
	}
	if seqidIdx < 0 {
		return nil, mtsverrors.New(mtsverrors.InvalidHeader, "missing 'seqid' column in mapping file")
	}

	maxIdx := headerIdx
	if taxidIdx > maxIdx {
		maxIdx = taxidIdx
	}
	if seqidIdx > maxIdx {
		maxIdx = seqidIdx
	}

	m := make(Map)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		row := splitLine(line, delim)
		if len(row) <= maxIdx {
			return nil, mtsverrors.New(mtsverrors.InvalidHeader,
				"invalid mapping row (expected at least "+strconv.Itoa(maxIdx+1)+" columns): "+line)
		}

		header := strings.TrimSpace(row[headerIdx])
		if header == "" {
			return nil, mtsverrors.New(mtsverrors.MissingHeader, "empty header in mapping file")
		}

		taxid, err := ids.ParseTaxId(row[taxidIdx])
		if err != nil {
			return nil, mtsverrors.New(mtsverrors.InvalidInteger, row[taxidIdx])
		}
		gi, err := ids.ParseGi(row[seqidIdx])
		if err != nil {
			return nil, mtsverrors.New(mtsverrors.InvalidInteger, row[seqidIdx])
		}

		if _, exists := m[header]; exists {
			return nil, mtsverrors.New(mtsverrors.InvalidHeader, "duplicate header mapping for "+header)
		}
		m[header] = Entry{Gi: gi, TaxId: taxid}
	}
	if err := scanner.Err(); err != nil {
		return nil, mtsverrors.FromIo(err)
	}
	return m, nil
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}

func indexOfAny(fields []string, names ...string) int {
	for _, n := range names {
		if i := indexOf(fields, n); i >= 0 {
			return i
		}
	}
	return -1
}

