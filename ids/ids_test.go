package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTaxId(t *testing.T) {
	id, err := ParseTaxId("9606")
	assert.NoError(t, err)
	assert.Equal(t, TaxId(9606), id)
	assert.Equal(t, "9606", id.String())
}

func TestParseGi(t *testing.T) {
	gi, err := ParseGi("42")
	assert.NoError(t, err)
	assert.Equal(t, Gi(42), gi)
	assert.Equal(t, "42", gi.String())
}

func TestParseTaxIdRejectsGarbage(t *testing.T) {
	_, err := ParseTaxId("not-a-number")
	assert.Error(t, err)
}

func TestParseGiRejectsNegative(t *testing.T) {
	_, err := ParseGi("-1")
	assert.Error(t, err)
}
