package candidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FofanovLab/mtsv-tools/corpus"
	"github.com/FofanovLab/mtsv-tools/seed"
)

func TestCoalesceMergesOverlappingHitsWithinOneBin(t *testing.T) {
	cp := &corpus.Corpus{
		Bins: []corpus.Bin{
			{Gi: 1, TaxId: 9, Start: 0, End: 100},
		},
	}
	hits := []seed.Hit{
		{ReferenceOffset: 10, QueryOffset: 0},
		{ReferenceOffset: 14, QueryOffset: 4},
	}

	cands, err := Coalesce(cp, hits, 1, 20, 1)
	require.NoError(t, err)
	if assert.Len(t, cands, 1) {
		assert.Equal(t, 2, cands[0].NumSeeds)
		assert.Equal(t, cp.Bins[0], cands[0].Bin)
	}
}

func TestCoalesceNeverStraddlesTwoBins(t *testing.T) {
	cp := &corpus.Corpus{
		Bins: []corpus.Bin{
			{Gi: 1, TaxId: 9, Start: 0, End: 20},
			{Gi: 2, TaxId: 10, Start: 20, End: 40},
		},
	}
	hits := []seed.Hit{
		{ReferenceOffset: 10, QueryOffset: 0},
		{ReferenceOffset: 30, QueryOffset: 0},
	}
	cands, err := Coalesce(cp, hits, 1, 6, 1)
	require.NoError(t, err)
	for _, c := range cands {
		assert.True(t, c.Start >= c.Bin.Start && c.End <= c.Bin.End)
	}
	assert.Len(t, cands, 2)
}

func TestCoalesceDropsCandidatesBelowMinSeeds(t *testing.T) {
	cp := &corpus.Corpus{
		Bins: []corpus.Bin{{Gi: 1, TaxId: 9, Start: 0, End: 100}},
	}
	hits := []seed.Hit{{ReferenceOffset: 10, QueryOffset: 0}}
	cands, err := Coalesce(cp, hits, 2, 20, 1)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestCoalesceRanksByNumSeedsThenTaxIdThenStart(t *testing.T) {
	cp := &corpus.Corpus{
		Bins: []corpus.Bin{
			{Gi: 1, TaxId: 20, Start: 0, End: 100},
			{Gi: 2, TaxId: 10, Start: 100, End: 200},
		},
	}
	hits := []seed.Hit{
		// TaxId 20: single merged candidate with 2 seeds.
		{ReferenceOffset: 10, QueryOffset: 0},
		{ReferenceOffset: 12, QueryOffset: 2},
		// TaxId 10: single seed, fewer than the first.
		{ReferenceOffset: 110, QueryOffset: 0},
	}
	cands, err := Coalesce(cp, hits, 1, 10, 1)
	require.NoError(t, err)
	if assert.Len(t, cands, 2) {
		assert.Equal(t, 2, cands[0].NumSeeds, "higher seed-count candidate ranks first")
	}
}

// A hit whose reference offset lands past the last bin's End means the
// index's bin table and suffix array have fallen out of sync; Coalesce
// must report this as ErrBinOverrun rather than index out of range or a
// panic, per spec.md §9 open question #2.
func TestCoalesceReturnsErrBinOverrunPastLastBin(t *testing.T) {
	cp := &corpus.Corpus{
		Bins: []corpus.Bin{{Gi: 1, TaxId: 9, Start: 0, End: 20}},
	}
	hits := []seed.Hit{{ReferenceOffset: 25, QueryOffset: 0}}
	cands, err := Coalesce(cp, hits, 1, 6, 1)
	assert.ErrorIs(t, err, ErrBinOverrun)
	assert.Nil(t, cands)
}

func TestCoalesceHandlesUnderflowNearBinStart(t *testing.T) {
	cp := &corpus.Corpus{
		Bins: []corpus.Bin{{Gi: 1, TaxId: 9, Start: 5, End: 100}},
	}
	// A hit near the very start of a bin, with queryOffset+editDistance
	// larger than (reference_offset - bin.Start), must clamp to bin.Start
	// rather than underflow.
	hits := []seed.Hit{{ReferenceOffset: 6, QueryOffset: 5}}
	cands, err := Coalesce(cp, hits, 1, 20, 3)
	require.NoError(t, err)
	if assert.Len(t, cands, 1) {
		assert.Equal(t, uint64(5), cands[0].Start)
	}
}
