package swscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreExactMatchEqualsQueryLength(t *testing.T) {
	p := NewProfile([]byte("ACGTACGT"))
	assert.Equal(t, 8, p.Score([]byte("ACGTACGT")))
}

func TestScoreNeverNegative(t *testing.T) {
	p := NewProfile([]byte("AAAAAAAA"))
	assert.GreaterOrEqual(t, p.Score([]byte("TTTTTTTT")), 0)
}

func TestScoreFindsLocalAlignmentWithinLongerReference(t *testing.T) {
	p := NewProfile([]byte("ACGTACGT"))
	score := p.Score([]byte("GGGGGGGGACGTACGTGGGGGGGG"))
	assert.Equal(t, 8, score)
}

func TestScorePenalizesMismatchesAndGaps(t *testing.T) {
	p := NewProfile([]byte("ACGTACGT"))
	exact := p.Score([]byte("ACGTACGT"))
	mismatched := p.Score([]byte("ACGAACGT"))
	assert.Less(t, mismatched, exact)
}

func TestProfileReusedAcrossMultipleCandidates(t *testing.T) {
	p := NewProfile([]byte("ACGTACGT"))
	first := p.Score([]byte("ACGTACGT"))
	second := p.Score([]byte("TTTTTTTT"))
	assert.Equal(t, 8, first)
	assert.Less(t, second, first)
}
