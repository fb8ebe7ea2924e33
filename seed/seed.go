// Package seed implements the seed harvester (component C of the
// specification): splitting a query read into gapped, fixed-length seeds,
// locating each seed's occurrences via FM-index backward search, and
// adaptively doubling the seed gap when a seed is too common to be useful,
// per spec.md §4.2 and the original mtsv binner's seed-harvesting loop in
// index.rs's matching_tax_ids.
package seed

import "github.com/FofanovLab/mtsv-tools/fmindex"

// Hit is the location of one exact seed match: the absolute offset into
// the concatenated reference corpus, and the offset within the query read
// where the seed that produced it began.
type Hit struct {
	ReferenceOffset uint64
	QueryOffset     int
}

// Params controls seed harvesting.
type Params struct {
	// SeedLength is the length of each exact-match seed.
	SeedLength int
	// SeedGap is the initial spacing between seed start offsets.
	SeedGap int
	// MaxHits discards a seed outright once its SA interval exceeds this
	// many occurrences (too common to be informative).
	MaxHits int
	// TuneMaxHits doubles the effective seed gap (skipping subsequent
	// seed starts that fall within the new, wider gap) once a seed's
	// hit count exceeds this threshold, without discarding the seed's
	// own hits.
	TuneMaxHits int
}

// Result is the outcome of harvesting all seeds from one query sequence:
// every located hit, plus the count of seeds whose hits were collected;
// seeds that are absent or exceed MaxHits are not counted (used by the caller to compute min_seeds via the q-gram-lemma scaling in
// spec.md §4.2.3).
type Result struct {
	Hits     []Hit
	NumSeeds int
}

// Harvest walks sequence in SeedGap-sized steps, extracting a SeedLength
// exact-match seed at each step, locating its occurrences through fm/sa,
// and adaptively widening the step (seed-gap doubling) whenever a seed's
// hit count exceeds TuneMaxHits. A seed whose hit count exceeds MaxHits is
// skipped (its SA interval is too large to be worth enumerating).
func Harvest(fm *fmindex.FMIndex, sa *fmindex.SampledSA, sequence []byte, p Params) Result {
	var res Result
	if p.SeedLength <= 0 || len(sequence) < p.SeedLength {
		return res
	}

	seedInterval := p.SeedGap
	if seedInterval <= 0 {
		seedInterval = 1
	}
	nextOffset := 0

	lastStart := len(sequence) - p.SeedLength
	for offset := 0; offset <= lastStart; offset += p.SeedGap {
		if offset < nextOffset {
			continue
		}

		seedSeq := sequence[offset : offset+p.SeedLength]
		search := fm.BackwardSearch(seedSeq)

		var iv fmindex.Interval
		switch search.Kind {
		case fmindex.Complete:
			iv = search.Interval
		case fmindex.Partial:
			iv = search.Interval
		case fmindex.Absent:
			continue
		}
		if iv.Size() == 0 {
			continue
		}

		nHits := iv.Size()
		if int(nHits) > p.MaxHits {
			continue
		}
		// The gap only ever grows; nothing below shrinks it again.
		if int(nHits) > p.TuneMaxHits {
			seedInterval *= 2
			nextOffset = offset + seedInterval
		}

		for i := iv.Lo; i < iv.Hi; i++ {
			pos := fm.Locate(sa, i)
			res.Hits = append(res.Hits, Hit{ReferenceOffset: pos, QueryOffset: offset})
		}
		res.NumSeeds++
	}

	return res
}
