package editdist

import (
	"testing"

	"github.com/antzucaro/matchr"
	"github.com/stretchr/testify/assert"
)

func TestConfirmMatchesExactString(t *testing.T) {
	edits, ok := Confirm([]byte("ACGTACGT"), []byte("ACGTACGT"), 2)
	assert.True(t, ok)
	assert.Equal(t, 0, edits)
}

func TestConfirmCrossCheckedAgainstMatchr(t *testing.T) {
	tests := []struct {
		query, ref string
		maxEdits   int
	}{
		{"ACGTACGTAC", "ACGTACGTAC", 3},
		{"ACGTACGTAC", "ACGAACGTAC", 3},
		{"ACGTACGTAC", "ACGTCGTAC", 3},
		{"ACGTACGTAC", "ACGTTACGTAC", 3},
		{"AAAAAAAAAA", "TTTTTTTTTT", 10},
	}

	for _, tc := range tests {
		want := matchr.Levenshtein(tc.query, tc.ref)
		got, ok := Confirm([]byte(tc.query), []byte(tc.ref), tc.maxEdits)
		if want > tc.maxEdits {
			assert.False(t, ok, "expected early-abort rejection for %q vs %q", tc.query, tc.ref)
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, want, got, "query=%q ref=%q", tc.query, tc.ref)
	}
}

func TestConfirmNNeverMatchesAnything(t *testing.T) {
	// A query 'N' must fail to match a reference 'N' at the same offset.
	edits, ok := Confirm([]byte("ACNTACGT"), []byte("ACNTACGT"), 1)
	assert.True(t, ok)
	assert.Equal(t, 1, edits)
}

func TestConfirmEarlyAbort(t *testing.T) {
	_, ok := Confirm([]byte("AAAAAAAAAA"), []byte("TTTTTTTTTT"), 2)
	assert.False(t, ok)
}
