package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FofanovLab/mtsv-tools/fmindex"
)

func buildIndex(seq []byte) (*fmindex.FMIndex, *fmindex.SampledSA) {
	sa := fmindex.BuildSuffixArray(seq)
	bwt := fmindex.BWT(seq, sa)
	less := fmindex.BuildLess(seq)
	occ := fmindex.BuildOcc(bwt, 4)
	sampled := fmindex.BuildSampledSA(sa, 2)
	return fmindex.New(bwt, less, occ), sampled
}

func TestHarvestFindsExactSeedOccurrence(t *testing.T) {
	seq := []byte("ACGTACGTACGTNNNNNNNN$")
	fm, sa := buildIndex(seq)

	res := Harvest(fm, sa, []byte("ACGTACGT"), Params{
		SeedLength: 4, SeedGap: 4, MaxHits: 100, TuneMaxHits: 100,
	})

	require.NotEmpty(t, res.Hits)
	assert.Equal(t, 2, res.NumSeeds)
	for _, h := range res.Hits {
		assert.Equal(t, seq[h.ReferenceOffset], byte('A'), "seed hit %+v should land on an 'A' start of ACGT", h)
	}
}

func TestHarvestSkipsSeedsOverMaxHits(t *testing.T) {
	seq := []byte("AAAAAAAAAAAAAAAAAAAA$")
	fm, sa := buildIndex(seq)

	res := Harvest(fm, sa, []byte("AAAAAAAA"), Params{
		SeedLength: 4, SeedGap: 4, MaxHits: 1, TuneMaxHits: 1,
	})
	assert.Empty(t, res.Hits)
	assert.Equal(t, 0, res.NumSeeds)
}

func TestHarvestWidensGapAfterAbundantSeed(t *testing.T) {
	// First seed window is highly repetitive (over TuneMaxHits but under
	// MaxHits); the gap should double for subsequent seed starts, so the
	// total number of seeds searched is fewer than a naive fixed-gap walk
	// would produce.
	seq := append([]byte{}, []byte("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")...)
	seq = append(seq, '$')
	fm, sa := buildIndex(seq)

	res := Harvest(fm, sa, []byte("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"), Params{
		SeedLength: 4, SeedGap: 2, MaxHits: 1000, TuneMaxHits: 1,
	})
	// With gap doubling from the very first seed, far fewer than
	// (readLen-seedLen)/gap+1 = 15 seeds should have been searched.
	assert.Less(t, res.NumSeeds, 15)
}

func TestHarvestEmptyOnShortQuery(t *testing.T) {
	seq := []byte("ACGT$")
	fm, sa := buildIndex(seq)
	res := Harvest(fm, sa, []byte("AC"), Params{SeedLength: 4, SeedGap: 4, MaxHits: 10, TuneMaxHits: 10})
	assert.Empty(t, res.Hits)
}
