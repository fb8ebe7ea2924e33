// Package ids defines the nominal identifier types used across mtsv-tools.
//
// TaxId and Gi are both plain uint32 on the wire, but are kept as distinct
// Go types so that a GI accidentally used where a taxonomic ID is expected
// (or vice versa) is caught at compile time rather than at runtime.
package ids

import "strconv"

// TaxId is a taxonomic identifier.
type TaxId uint32

// Gi is a GenInfo/accession identifier for a single reference sequence.
type Gi uint32

func (t TaxId) String() string { return strconv.FormatUint(uint64(t), 10) }
func (g Gi) String() string    { return strconv.FormatUint(uint64(g), 10) }

// ParseTaxId parses a decimal string into a TaxId.
func ParseTaxId(s string) (TaxId, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return TaxId(n), nil
}

// ParseGi parses a decimal string into a Gi.
func ParseGi(s string) (Gi, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return Gi(n), nil
}
