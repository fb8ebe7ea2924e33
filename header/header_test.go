package header

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FofanovLab/mtsv-tools/ids"
	"github.com/FofanovLab/mtsv-tools/mapping"
	"github.com/FofanovLab/mtsv-tools/mtsverrors"
)

func TestFirstToken(t *testing.T) {
	assert.Equal(t, "gi123", FirstToken("gi123 extra description text"))
	assert.Equal(t, "gi123", FirstToken("gi123"))
	assert.Equal(t, "", FirstToken("   "))
}

func TestParseGiTaxId(t *testing.T) {
	gi, tax, err := ParseGiTaxId("42-9606")
	assert.NoError(t, err)
	assert.Equal(t, ids.Gi(42), gi)
	assert.Equal(t, ids.TaxId(9606), tax)
}

func TestParseGiTaxIdRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "-9606", "42-", "42", "abc-def"} {
		_, _, err := ParseGiTaxId(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}

func TestResolveWithoutMapping(t *testing.T) {
	gi, tax, ok, err := Resolve("42-9606 description", nil, false)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ids.Gi(42), gi)
	assert.Equal(t, ids.TaxId(9606), tax)
}

func TestResolveWithMapping(t *testing.T) {
	m := mapping.Map{"NC_001": {Gi: 7, TaxId: 11}}
	gi, tax, ok, err := Resolve("NC_001 some description", m, false)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ids.Gi(7), gi)
	assert.Equal(t, ids.TaxId(11), tax)
}

func TestResolveMissingMappingFailsByDefault(t *testing.T) {
	m := mapping.Map{}
	_, _, ok, err := Resolve("NC_999", m, false)
	assert.False(t, ok)
	assert.True(t, mtsverrors.Is(err, mtsverrors.InvalidHeader))
}

func TestResolveMissingMappingSkipped(t *testing.T) {
	m := mapping.Map{}
	_, _, ok, err := Resolve("NC_999", m, true)
	assert.NoError(t, err)
	assert.False(t, ok)
}
