package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDefaultFormat(t *testing.T) {
	entries := []Entry{{TaxId: 9, Edit: 0}}
	assert.Equal(t, "r1:9=0", Emit("r1", entries, Default))
}

func TestEmitEmptyEntriesProducesNoLine(t *testing.T) {
	assert.Equal(t, "", Emit("r1", nil, Default))
}

// S5 from spec.md §8: long-format dedup keeps the minimum edit per
// (TaxId, Gi) and sorts by TaxId, then Gi, then Offset.
func TestEmitLongFormatScenarioS5(t *testing.T) {
	entries := []Entry{
		{TaxId: 2, Gi: 10, Offset: 3, Edit: 7, HasLocation: true},
		{TaxId: 2, Gi: 10, Offset: 3, Edit: 4, HasLocation: true},
		{TaxId: 5, Gi: 12, Offset: 1, Edit: 9, HasLocation: true},
	}
	canon := Canonicalize(entries, Long)
	got := Emit("r", canon, Long)
	assert.Equal(t, "r:2-10-3=4,5-12-1=9", got)
}

func TestParseDefaultFormat(t *testing.T) {
	line, err := Parse("r1:9=0,11=2")
	require.NoError(t, err)
	assert.Equal(t, "r1", line.ReadId)
	assert.Equal(t, []Entry{{TaxId: 9, Edit: 0}, {TaxId: 11, Edit: 2}}, line.Entries)
}

func TestParseLongFormat(t *testing.T) {
	line, err := Parse("r1:2-10-3=4")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{TaxId: 2, Gi: 10, Offset: 3, Edit: 4, HasLocation: true}}, line.Entries)
}

func TestParseReadIdMayContainColon(t *testing.T) {
	line, err := Parse("lane1:tile2:9=0")
	require.NoError(t, err)
	assert.Equal(t, "lane1:tile2", line.ReadId)
}

func TestParseRejectsMissingSeparator(t *testing.T) {
	_, err := Parse("no-colon-here")
	assert.Error(t, err)
}

func TestParseRejectsMixedFormatWithinOneToken(t *testing.T) {
	// "9-10" would be ambiguous as a single-key token mixing the two
	// grammars; SplitN(..., 3) on a two-part key must fail, not silently
	// drop the GI.
	_, err := Parse("r:9-10=1")
	assert.Error(t, err)
}

// Round-trip codec property from spec.md §8 property 1: for any set of
// (read_id, hits) with non-empty hit set, parse(emit(x)) == canonicalize(x).
func TestRoundTripCodecProperty(t *testing.T) {
	entries := []Entry{
		{TaxId: 9, Gi: 1, Offset: 0, Edit: 3, HasLocation: true},
		{TaxId: 9, Gi: 1, Offset: 0, Edit: 1, HasLocation: true},
		{TaxId: 2, Gi: 5, Offset: 7, Edit: 2, HasLocation: true},
	}

	for _, format := range []Format{Default, Long} {
		canon := Canonicalize(entries, format)
		line := Emit("r1", canon, format)
		parsed, err := Parse(line)
		require.NoError(t, err)
		reCanon := Canonicalize(parsed.Entries, format)
		assert.Equal(t, canon, reCanon)
	}
}

func TestCanonicalizeDedupesDefaultByTaxIdOnly(t *testing.T) {
	entries := []Entry{
		{TaxId: 9, Gi: 1, Edit: 5},
		{TaxId: 9, Gi: 2, Edit: 1},
	}
	canon := Canonicalize(entries, Default)
	if assert.Len(t, canon, 1) {
		assert.Equal(t, 1, canon[0].Edit)
	}
}
