package mapping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FofanovLab/mtsv-tools/ids"
)

func TestParseTabDelimited(t *testing.T) {
	in := "header\ttaxid\tseqid\nNC_001\t9606\t42\nNC_002\t10090\t43\n"
	m, err := Parse(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, Entry{Gi: 42, TaxId: 9606}, m["NC_001"])
	assert.Equal(t, Entry{Gi: 43, TaxId: 10090}, m["NC_002"])
}

func TestParseDetectsDelimiterAndIsCaseInsensitive(t *testing.T) {
	in := "HEADER,TAXID,GI,EXTRA\nNC_001,9606,42,ignored\n"
	m, err := Parse(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, Entry{Gi: 42, TaxId: 9606}, m["NC_001"])
}

func TestParseWhitespaceDelimited(t *testing.T) {
	in := "header taxid seqid\nNC_001 9606 42\n"
	m, err := Parse(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Equal(t, ids.TaxId(9606), m["NC_001"].TaxId)
}

func TestParseRejectsMissingColumn(t *testing.T) {
	in := "header,seqid\nNC_001,42\n"
	_, err := Parse(strings.NewReader(in))
	assert.Error(t, err)
}

func TestParseRejectsDuplicateHeader(t *testing.T) {
	in := "header,taxid,seqid\nNC_001,9606,42\nNC_001,1,2\n"
	_, err := Parse(strings.NewReader(in))
	assert.Error(t, err)
}
