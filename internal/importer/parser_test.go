package importer

import (
	"strings"
	"testing"

	"github.com/avelore/consignpos-import-service/internal/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_CanonicalHeader(t *testing.T) {
	content := "Name,Price,ConsignorNumber\nBlue Jacket,45.00,472HK3\n"

	result, err := ParseCSV(content)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "price", "consignorNumber"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Blue Jacket", result.Rows[0].Fields.Name)
	assert.Equal(t, "45.00", result.Rows[0].Fields.Price)
	assert.Equal(t, "472HK3", result.Rows[0].Fields.ConsignorNumber)
}

func TestParseCSV_QuotedFields(t *testing.T) {
	content := strings.Join([]string{
		`Name,Description,Price,ConsignorNumber`,
		`"Jacket, Blue","Says ""vintage"" on the tag",45.00,472HK3`,
	}, "\n")

	result, err := ParseCSV(content)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "Jacket, Blue", row.Fields.Name)
	assert.Equal(t, `Says "vintage" on the tag`, row.Fields.Description)
}

func TestParseCSV_QuotedWhitespacePreserved(t *testing.T) {
	content := strings.Join([]string{
		`Name,Notes,Location`,
		`"  Blue Jacket  ",  back room shelf  ,"Rack 4, left"`,
	}, "\n")

	result, err := ParseCSV(content)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	// Quoting is how a value keeps intentional padding; unquoted whitespace
	// is incidental and trimmed.
	assert.Equal(t, "  Blue Jacket  ", row.Fields.Name)
	assert.Equal(t, "back room shelf", row.Fields.Notes)
	assert.Equal(t, "Rack 4, left", row.Fields.Location)
}

func TestParseCSV_SkipsBlankLines(t *testing.T) {
	content := "Name,Price,ConsignorNumber\n\nBlue Jacket,45.00,472HK3\n   \nRed Scarf,12.50,983QW1\n"

	result, err := ParseCSV(content)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	// Row numbers stay 1-based relative to the original file.
	assert.Equal(t, 3, result.Rows[0].RowNumber)
	assert.Equal(t, 5, result.Rows[1].RowNumber)
}

func TestParseCSV_NoDataRows(t *testing.T) {
	for _, content := range []string{"", "Name,Price,ConsignorNumber\n", "Name,Price,ConsignorNumber"} {
		_, err := ParseCSV(content)
		require.Error(t, err)
		assert.ErrorIs(t, err, httputil.ErrFormat)
	}
}

func TestParseCSV_UnrecognizedColumnsLandInExtra(t *testing.T) {
	content := "Name,Price,ConsignorNumber,Color\nBlue Jacket,45.00,472HK3,Navy\n"

	result, err := ParseCSV(content)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Navy", result.Rows[0].Fields.Extra["color"])
}

func TestParseCSV_StripsBOMAndCarriageReturns(t *testing.T) {
	content := "\uFEFFName,Price,ConsignorNumber\r\nBlue Jacket,45.00,472HK3\r\n"

	result, err := ParseCSV(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "price", "consignorNumber"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "472HK3", result.Rows[0].Fields.ConsignorNumber)
}

func TestParseCSV_RoundTrip(t *testing.T) {
	content := "Name,Description,SKU,Price,ConsignorNumber\n" +
		"Blue Jacket,Light wash,BJ-1,45.00,472HK3\n" +
		"Red Scarf,Wool,RS-2,12.50,983QW1\n"

	result, err := ParseCSV(content)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	// Re-serializing the parsed fields reproduces the original values.
	for i, expected := range [][]string{
		{"Blue Jacket", "Light wash", "BJ-1", "45.00", "472HK3"},
		{"Red Scarf", "Wool", "RS-2", "12.50", "983QW1"},
	} {
		f := result.Rows[i].Fields
		assert.Equal(t, expected, []string{f.Name, f.Description, f.SKU, f.Price, f.ConsignorNumber})
	}
}
