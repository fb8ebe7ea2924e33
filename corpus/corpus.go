// Package corpus implements the reference corpus and bin table (component A
// of the specification): concatenating per-reference sequences into a
// single byte string and recording the half-open [start,end) span, Gi, and
// TaxId of each contributing reference.
package corpus

import (
	"sort"

	"github.com/FofanovLab/mtsv-tools/ids"
)

// Sentinel is the lexicographically-smallest terminator appended once to
// the end of the concatenated corpus, required by the suffix array/BWT
// construction.
const Sentinel = '$'

// Bin is the immutable metadata record for a single reference sequence
// within the concatenated corpus.
type Bin struct {
	Gi    ids.Gi
	TaxId ids.TaxId
	Start uint64
	End   uint64
}

// Corpus is the concatenated, case-folded reference sequence plus its bin
// table, sorted by Start and non-overlapping except for the trailing
// sentinel byte.
type Corpus struct {
	Sequence []byte
	Bins     []Bin
}

// FoldBase canonicalizes a single sequence byte: lowercase a/c/g/t/n map to
// their uppercase form, and anything outside {A,C,G,T,N} becomes N.
func FoldBase(b byte) byte {
	switch b {
	case 'A', 'C', 'G', 'T', 'N':
		return b
	case 'a':
		return 'A'
	case 'c':
		return 'C'
	case 'g':
		return 'G'
	case 't':
		return 'T'
	case 'n':
		return 'N'
	default:
		return 'N'
	}
}

// FoldSequence case-folds seq in place and returns it.
func FoldSequence(seq []byte) []byte {
	for i, b := range seq {
		seq[i] = FoldBase(b)
	}
	return seq
}

// BinAt returns the Bin containing absolute corpus offset, found by
// binary search over Start (invariant: "every SeedHit maps into exactly
// one Bin, found by start <= reference_offset < end").
func (c *Corpus) BinAt(offset uint64) (Bin, bool) {
	i := sort.Search(len(c.Bins), func(i int) bool {
		return c.Bins[i].End > offset
	})
	if i == len(c.Bins) || c.Bins[i].Start > offset {
		return Bin{}, false
	}
	return c.Bins[i], true
}

// References returns copies of every reference sequence (bin slice of the
// concatenated corpus) recorded under the given taxonomic ID, in bin
// order. This mirrors the original MGIndex::get_references accessor used
// by mtsv's (external, out-of-scope) reference-extraction tooling.
func (c *Corpus) References(taxID ids.TaxId) [][]byte {
	var out [][]byte
	for _, bin := range c.Bins {
		if bin.TaxId == taxID {
			seq := make([]byte, bin.End-bin.Start)
			copy(seq, c.Sequence[bin.Start:bin.End])
			out = append(out, seq)
		}
	}
	return out
}

// record is a single not-yet-concatenated reference sequence, keyed for
// grouping by the Builder.
type record struct {
	gi  ids.Gi
	seq []byte
}

// Builder accumulates reference records prior to concatenation, grouping
// them by TaxId (ascending) and preserving insertion order within a TaxId,
// per spec.md's build algorithm step 1.
type Builder struct {
	order   []ids.TaxId
	seen    map[ids.TaxId]bool
	records map[ids.TaxId][]record
}

// NewBuilder constructs an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		seen:    make(map[ids.TaxId]bool),
		records: make(map[ids.TaxId][]record),
	}
}

// Add appends a single reference sequence under the given Gi/TaxId. The
// slice is retained; callers must not mutate it afterward.
func (b *Builder) Add(gi ids.Gi, taxID ids.TaxId, seq []byte) {
	if !b.seen[taxID] {
		b.seen[taxID] = true
		b.order = append(b.order, taxID)
	}
	b.records[taxID] = append(b.records[taxID], record{gi: gi, seq: seq})
}

// Build concatenates all accumulated records in ascending TaxId order (then
// insertion order within a TaxId), case-folds every byte, and appends the
// terminating sentinel.
func (b *Builder) Build() *Corpus {
	sorted := append([]ids.TaxId(nil), b.order...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	c := &Corpus{}
	for _, taxID := range sorted {
		for _, rec := range b.records[taxID] {
			start := uint64(len(c.Sequence))
			c.Sequence = append(c.Sequence, rec.seq...)
			end := uint64(len(c.Sequence))
			c.Bins = append(c.Bins, Bin{Gi: rec.gi, TaxId: taxID, Start: start, End: end})
		}
	}
	FoldSequence(c.Sequence)
	c.Sequence = append(c.Sequence, Sentinel)
	return c
}
