// Package candidate implements the candidate coalescer (component D of the
// specification): merging seed.Hits into ReferenceCandidate regions of the
// corpus worth aligning against, bin by bin, per spec.md §4.3 and the
// original mtsv index.rs's ReferenceCandidate/coalesce_seed_sites.
package candidate

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/FofanovLab/mtsv-tools/corpus"
	"github.com/FofanovLab/mtsv-tools/seed"
)

// ErrBinOverrun is returned by Coalesce when a seed hit's reference offset
// falls past the last recorded bin: the bin cursor only ever advances
// forward as hits are sorted by ReferenceOffset, so this can only happen
// if the index's own bin table and suffix array have fallen out of sync.
// Per spec.md §9 open question #2, this is a defensive error rather than
// a crash.
var ErrBinOverrun = errors.New("candidate: seed hit reference offset past last bin; index is corrupt")

// Candidate is a contiguous span of the corpus, confined to a single Bin,
// accumulated from one or more overlapping seed hits.
type Candidate struct {
	Start    uint64
	End      uint64
	Bin      corpus.Bin
	NumSeeds int
}

// Seq returns the candidate's corpus slice.
func (c Candidate) Seq(cp *corpus.Corpus) []byte {
	return cp.Sequence[c.Start:c.End]
}

// span computes the alignment window a single seed hit licenses, per
// spec.md §4.3.1: it must allow readLen-seedOffset+editDistance bases from the hit and
// seedOffset+editDistance bases before it, clamped to the hit's own bin so
// a candidate never straddles two references. Returns ok=false if the
// resulting window is degenerate or too short to host a full alignment.
func span(hit seed.Hit, bin corpus.Bin, readLen int, editDistance int) (start, end uint64, ok bool) {
	site := hit.ReferenceOffset
	seedOffset := uint64(hit.QueryOffset)
	ed := uint64(editDistance)

	startOffset := seedOffset + ed
	var candStart uint64
	if site < startOffset || site-startOffset < bin.Start {
		candStart = bin.Start
	} else {
		candStart = site - startOffset
	}

	candEnd := site + uint64(readLen) - seedOffset + ed
	if candEnd > bin.End {
		candEnd = bin.End
	}

	minLen := uint64(readLen) - ed
	if candStart > candEnd || candStart < bin.Start || candEnd > bin.End ||
		candEnd-candStart < minLen {
		return 0, 0, false
	}
	return candStart, candEnd, true
}

// tryMerge attempts to fold hit into c, returning the merged candidate and
// true if hit's own span overlaps c's span within the same bin; otherwise
// returns c unchanged and false.
func tryMerge(c Candidate, hit seed.Hit, bin corpus.Bin, readLen, editDistance int) (Candidate, bool) {
	start, end, ok := span(hit, bin, readLen, editDistance)
	if !ok {
		return c, false
	}
	if bin != c.Bin {
		return c, false
	}
	overlaps := start < c.End && c.Start < end
	if !overlaps {
		return c, false
	}
	if start < c.Start {
		c.Start = start
	}
	if end > c.End {
		c.End = end
	}
	c.NumSeeds++
	return c, true
}

// Coalesce merges hits (not required to be pre-sorted) into Candidates,
// bin by bin, discarding any candidate whose final seed count falls below
// minSeeds. The corpus' bin table must be non-empty and sorted by Start
// (corpus.Builder guarantees this). Returns ErrBinOverrun if a hit's
// reference offset runs past the last bin (see ErrBinOverrun).
func Coalesce(cp *corpus.Corpus, hits []seed.Hit, minSeeds, readLen, editDistance int) ([]Candidate, error) {
	if len(cp.Bins) == 0 || len(hits) == 0 {
		return nil, nil
	}

	sorted := append([]seed.Hit(nil), hits...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ReferenceOffset != sorted[j].ReferenceOffset {
			return sorted[i].ReferenceOffset < sorted[j].ReferenceOffset
		}
		return sorted[i].QueryOffset < sorted[j].QueryOffset
	})

	var candidates []Candidate
	var curr *Candidate
	binIdx := 0
	curBin := cp.Bins[binIdx]

	flush := func() {
		if curr != nil && curr.NumSeeds >= minSeeds {
			candidates = append(candidates, *curr)
		}
		curr = nil
	}

	for _, hit := range sorted {
		for curBin.End <= hit.ReferenceOffset {
			binIdx++
			if binIdx >= len(cp.Bins) {
				return nil, ErrBinOverrun
			}
			curBin = cp.Bins[binIdx]
		}

		if curr != nil {
			if merged, ok := tryMerge(*curr, hit, curBin, readLen, editDistance); ok {
				curr = &merged
				continue
			}
			flush()
		}

		start, end, ok := span(hit, curBin, readLen, editDistance)
		if !ok {
			continue
		}
		curr = &Candidate{Start: start, End: end, Bin: curBin, NumSeeds: 1}
	}
	flush()

	// Rank most-promising first: most seeds, then lowest TaxId, then
	// earliest reference start, per spec.md §4.3.2's tie-break order.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.NumSeeds != b.NumSeeds {
			return a.NumSeeds > b.NumSeeds
		}
		if a.Bin.TaxId != b.Bin.TaxId {
			return a.Bin.TaxId < b.Bin.TaxId
		}
		return a.Start < b.Start
	})

	return candidates, nil
}
