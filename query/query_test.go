package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FofanovLab/mtsv-tools/corpus"
	"github.com/FofanovLab/mtsv-tools/fmindex"
	"github.com/FofanovLab/mtsv-tools/ids"
)

func buildTestCorpus(t *testing.T, refs map[uint32]string) (*fmindex.FMIndex, *fmindex.SampledSA, *corpus.Corpus) {
	t.Helper()
	b := corpus.NewBuilder()
	i := uint32(1)
	for taxID, seq := range refs {
		b.Add(ids.Gi(i), ids.TaxId(taxID), []byte(seq))
		i++
	}
	cp := b.Build()

	sa := fmindex.BuildSuffixArray(cp.Sequence)
	bwt := fmindex.BWT(cp.Sequence, sa)
	less := fmindex.BuildLess(cp.Sequence)
	occ := fmindex.BuildOcc(bwt, 4)
	sampled := fmindex.BuildSampledSA(sa, 2)
	require.NotEmpty(t, cp.Bins)
	return fmindex.New(bwt, less, occ), sampled, cp
}

func defaultParams() Params {
	return Params{
		EditFreq:        0,
		SeedLength:      4,
		SeedGap:         4,
		MinSeedsPercent: 0.1,
		MaxHits:         1000,
		TuneMaxHits:     500,
	}
}

// S1: exact match, single taxid.
func TestScenarioS1ExactMatch(t *testing.T) {
	fm, sa, cp := buildTestCorpus(t, map[uint32]string{9: "ACGTACGT", 99: "TTTTAAAA"})
	p := defaultParams()
	hits, err := Run(fm, sa, cp, corpus.FoldSequence([]byte("ACGTACGT")), p)
	require.NoError(t, err)

	var fwd []Hit
	for _, h := range hits {
		if h.Edits == 0 {
			fwd = append(fwd, h)
		}
	}
	require.NotEmpty(t, fwd)
	assert.Equal(t, uint32(9), uint32(fwd[0].TaxId))
}

// S2: substitution under tolerance.
func TestScenarioS2SubstitutionUnderTolerance(t *testing.T) {
	fm, sa, cp := buildTestCorpus(t, map[uint32]string{9: "ACGTACGT", 99: "TTTTAAAA"})
	p := defaultParams()
	p.EditFreq = 0.125
	hits, err := Run(fm, sa, cp, corpus.FoldSequence([]byte("ACGAACGT")), p)
	require.NoError(t, err)

	found := false
	for _, h := range hits {
		if h.TaxId == 9 && h.Edits == 1 {
			found = true
		}
	}
	assert.True(t, found, "expected tax 9 with edit distance 1, got %+v", hits)
}

// S3: no hit above tolerance.
func TestScenarioS3NoHitAboveTolerance(t *testing.T) {
	fm, sa, cp := buildTestCorpus(t, map[uint32]string{9: "ACGTACGT", 99: "TTTTAAAA"})
	p := defaultParams()
	p.EditFreq = 0.1
	hits, err := Run(fm, sa, cp, corpus.FoldSequence([]byte("GGGGGGGG")), p)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// S4: reverse complement.
func TestScenarioS4ReverseComplementHit(t *testing.T) {
	fm, sa, cp := buildTestCorpus(t, map[uint32]string{9: "TTTTACGT"})
	p := defaultParams()
	hits, err := Run(fm, sa, cp, corpus.FoldSequence([]byte("ACGTAAAA")), p)
	require.NoError(t, err)

	found := false
	for _, h := range hits {
		if h.TaxId == 9 && h.Edits == 0 {
			found = true
		}
	}
	assert.True(t, found, "expected revcomp hit against tax 9, got %+v", hits)
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "ACGT", string(ReverseComplement([]byte("ACGT"))))
	assert.Equal(t, "NACGT", string(ReverseComplement([]byte("ACGTN"))))
}

// Strand symmetry property from spec.md §8 property 3: querying a read and
// its reverse complement against the same index yields the same taxid set,
// because matchingTaxIds(read) and matchingTaxIds(revcomp(read)) simply
// run the forward/reverse legs of Run in the opposite order.
func TestStrandSymmetryProperty(t *testing.T) {
	fm, sa, cp := buildTestCorpus(t, map[uint32]string{9: "ACGTACGTACGTACGT", 5: "TTTTGGGGCCCCAAAA"})
	p := defaultParams()
	read := corpus.FoldSequence([]byte("ACGTACGTACGTACGT"))
	rc := ReverseComplement(read)

	forwardTax := map[uint32]bool{}
	forwardHits, err := matchingTaxIds(fm, sa, cp, read, p)
	require.NoError(t, err)
	for _, h := range forwardHits {
		forwardTax[uint32(h.TaxId)] = true
	}
	rcHits, err := matchingTaxIds(fm, sa, cp, rc, p)
	require.NoError(t, err)
	for _, h := range rcHits {
		forwardTax[uint32(h.TaxId)] = true
	}

	revTax := map[uint32]bool{}
	runHits, err := Run(fm, sa, cp, rc, p)
	require.NoError(t, err)
	for _, h := range runHits {
		revTax[uint32(h.TaxId)] = true
	}

	assert.Equal(t, forwardTax, revTax)
}
