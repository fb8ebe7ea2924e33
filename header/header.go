// Package header resolves a FASTA record header to a (Gi, TaxId) pair,
// either via a supplied mapping.Map or, absent one, by parsing the header
// itself in the original mtsv "GI-TAXID" convention.
package header

import (
	"strings"

	"github.com/FofanovLab/mtsv-tools/ids"
	"github.com/FofanovLab/mtsv-tools/mapping"
	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

// FirstToken returns the first whitespace-delimited token of a raw FASTA
// header line, which is the portion used for both mapping lookups and
// GI-TAXID parsing.
func FirstToken(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ParseGiTaxId parses a bare "GI-TAXID" header (two unsigned decimals
// separated by a single hyphen) absent an explicit mapping file.
func ParseGiTaxId(token string) (ids.Gi, ids.TaxId, error) {
	if token == "" {
		return 0, 0, mtsverrors.New(mtsverrors.MissingHeader, "")
	}
	idx := strings.IndexByte(token, '-')
	if idx < 0 || idx == 0 || idx == len(token)-1 {
		return 0, 0, mtsverrors.New(mtsverrors.InvalidHeader, token)
	}
	gi, err := ids.ParseGi(token[:idx])
	if err != nil {
		return 0, 0, mtsverrors.New(mtsverrors.InvalidInteger, token[:idx])
	}
	tax, err := ids.ParseTaxId(token[idx+1:])
	if err != nil {
		return 0, 0, mtsverrors.New(mtsverrors.InvalidInteger, token[idx+1:])
	}
	return gi, tax, nil
}

// Resolve determines the (Gi, TaxId) for a raw FASTA header, either by
// looking the first token up in m (when non-nil) or by parsing it as
// GI-TAXID. skipMissing controls whether an unmapped header is a fatal
// error or should be signaled via the ok=false return so callers can skip
// the record.
func Resolve(raw string, m mapping.Map, skipMissing bool) (gi ids.Gi, tax ids.TaxId, ok bool, err error) {
	token := FirstToken(raw)
	if m == nil {
		gi, tax, err = ParseGiTaxId(token)
		if err != nil {
			return 0, 0, false, err
		}
		return gi, tax, true, nil
	}

	entry, found := m[token]
	if !found {
		if skipMissing {
			return 0, 0, false, nil
		}
		return 0, 0, false, mtsverrors.New(mtsverrors.InvalidHeader, "missing mapping for header "+token)
	}
	return entry.Gi, entry.TaxId, true, nil
}
