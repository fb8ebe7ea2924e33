// Package codec implements the result-line grammar (component I of the
// specification): parsing and emitting binner output lines in both the
// default (TAX=EDIT) and long (TAX-GI-OFF=EDIT) formats, per spec.md §6.
package codec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/FofanovLab/mtsv-tools/ids"
	"github.com/FofanovLab/mtsv-tools/mtsverrors"
	"github.com/FofanovLab/mtsv-tools/query"
)

// Format selects which entry grammar Emit writes.
type Format int

const (
	// Default writes TAX=EDIT entries.
	Default Format = iota
	// Long writes TAX-GI-OFF=EDIT entries.
	Long
)

// Entry is one parsed result-line entry. Gi and Offset are only meaningful
// (HasLocation true) when the line was written in Long format.
type Entry struct {
	TaxId       ids.TaxId
	Gi          ids.Gi
	Offset      uint64
	Edit        int
	HasLocation bool
}

// Line is one fully-parsed result record: a read id plus its entries.
type Line struct {
	ReadId  string
	Entries []Entry
}

// FromHits converts query.Hits for a single read into Entries, dropping
// nothing: deduplication to min-edit-per-key is a caller concern (see
// Canonicalize), not this conversion.
func FromHits(hits []query.Hit) []Entry {
	out := make([]Entry, len(hits))
	for i, h := range hits {
		out[i] = Entry{TaxId: h.TaxId, Gi: h.Gi, Offset: h.Offset, Edit: h.Edits, HasLocation: true}
	}
	return out
}

// Canonicalize deduplicates entries to the minimum edit per key — by TaxId
// alone in Default format, by (TaxId, Gi) in Long format (offset is taken
// from whichever entry has the minimum edit) — and sorts the result by
// TaxId, then Gi, then Offset, then Edit, per spec.md §4.4 step 5 /
// §8 property 1. In Default format the result carries no location: Gi,
// Offset and HasLocation are cleared, since a TAX=EDIT line cannot hold them.
func Canonicalize(entries []Entry, format Format) []Entry {
	type key struct {
		tax ids.TaxId
		gi  ids.Gi
	}
	best := make(map[key]Entry)
	var order []key

	for _, e := range entries {
		if format != Long {
			e.Gi, e.Offset, e.HasLocation = 0, 0, false
		}
		k := key{tax: e.TaxId}
		if format == Long {
			k.gi = e.Gi
		}
		if cur, ok := best[k]; !ok {
			best[k] = e
			order = append(order, k)
		} else if e.Edit < cur.Edit {
			best[k] = e
		}
	}

	out := make([]Entry, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TaxId != b.TaxId {
			return a.TaxId < b.TaxId
		}
		if a.Gi != b.Gi {
			return a.Gi < b.Gi
		}
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return a.Edit < b.Edit
	})
	return out
}

// Emit renders readId and entries (already canonicalized by the caller,
// typically via Canonicalize) as one result line, with no trailing
// newline. Returns "" if entries is empty (spec.md §6: "empty hit set →
// no line").
func Emit(readId string, entries []Entry, format Format) string {
	if len(entries) == 0 {
		return ""
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		var key string
		if format == Long {
			key = fmt.Sprintf("%s-%s-%d", e.TaxId, e.Gi, e.Offset)
		} else {
			key = e.TaxId.String()
		}
		parts[i] = fmt.Sprintf("%s=%d", key, e.Edit)
	}
	return readId + ":" + strings.Join(parts, ",")
}

// Parse decodes one result line, tolerating both Default and Long format
// entries on the same line (detected per-token by the presence of a
// hyphen inside the key, per spec.md §4.4's grammar-tolerance note), but
// rejecting a single *token* that mixes the two. READ_ID may itself
// contain ':', so the split happens from the right: everything up to and
// including the final ':' that still leaves a parseable entry list on the
// right is the separator. In practice every entry is "key=edit" with no
// ':' inside it, so splitting on the last ':' in the whole line is
// sufficient and matches the write side exactly.
func Parse(line string) (Line, error) {
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return Line{}, mtsverrors.New(mtsverrors.InvalidHeader, "result line missing ':' separator: "+line)
	}
	readID := line[:idx]
	rest := line[idx+1:]
	if rest == "" {
		return Line{}, mtsverrors.New(mtsverrors.InvalidHeader, "result line has empty entry list: "+line)
	}

	tokens := strings.Split(rest, ",")
	entries := make([]Entry, 0, len(tokens))
	for _, tok := range tokens {
		e, err := parseEntry(tok)
		if err != nil {
			return Line{}, err
		}
		entries = append(entries, e)
	}
	return Line{ReadId: readID, Entries: entries}, nil
}

func parseEntry(tok string) (Entry, error) {
	eq := strings.LastIndex(tok, "=")
	if eq < 0 {
		return Entry{}, mtsverrors.New(mtsverrors.InvalidHeader, "result entry missing '=': "+tok)
	}
	key := tok[:eq]
	editStr := tok[eq+1:]

	edit, err := strconv.Atoi(editStr)
	if err != nil {
		return Entry{}, mtsverrors.Wrap(mtsverrors.InvalidInteger, err, "result entry edit distance: "+editStr)
	}

	if !strings.Contains(key, "-") {
		taxID, err := ids.ParseTaxId(key)
		if err != nil {
			return Entry{}, mtsverrors.Wrap(mtsverrors.InvalidInteger, err, "result entry tax id: "+key)
		}
		return Entry{TaxId: taxID, Edit: edit}, nil
	}

	parts := strings.SplitN(key, "-", 3)
	if len(parts) != 3 {
		return Entry{}, mtsverrors.New(mtsverrors.InvalidHeader, "long-format entry key malformed: "+key)
	}
	taxID, err := ids.ParseTaxId(parts[0])
	if err != nil {
		return Entry{}, mtsverrors.Wrap(mtsverrors.InvalidInteger, err, "result entry tax id: "+parts[0])
	}
	gi, err := ids.ParseGi(parts[1])
	if err != nil {
		return Entry{}, mtsverrors.Wrap(mtsverrors.InvalidInteger, err, "result entry gi: "+parts[1])
	}
	offset, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Entry{}, mtsverrors.Wrap(mtsverrors.InvalidInteger, err, "result entry offset: "+parts[2])
	}
	return Entry{TaxId: taxID, Gi: gi, Offset: offset, Edit: edit, HasLocation: true}, nil
}
