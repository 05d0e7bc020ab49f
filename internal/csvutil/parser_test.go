// internal/csvutil/parser_test.go
package csvutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStripsBOMAndLineEndings(t *testing.T) {
	table := Parse("\ufeffbarcode,sold_qty,amount\r\n880001,5,6500\r\n")

	assert.Equal(t, []string{"barcode", "sold_qty", "amount"}, table.Headers)
	assert.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"880001", "5", "6500"}, table.Rows[0])
}

func TestParseDropsBlankLines(t *testing.T) {
	table := Parse("a,b\n\n1,2\n   \n3,4\n")

	assert.Equal(t, []string{"a", "b"}, table.Headers)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"1", "2"}, table.Rows[0])
	assert.Equal(t, []string{"3", "4"}, table.Rows[1])
}

func TestParseEmptyInput(t *testing.T) {
	table := Parse("")

	assert.Empty(t, table.Headers)
	assert.Empty(t, table.Rows)
}

func TestParseDetectsSemicolon(t *testing.T) {
	table := Parse("barcode;qty;amount\n880001;5;6500\n")

	assert.Equal(t, []string{"barcode", "qty", "amount"}, table.Headers)
	assert.Equal(t, []string{"880001", "5", "6500"}, table.Rows[0])
}

func TestParseDetectsTab(t *testing.T) {
	table := Parse("barcode\tqty\tamount\n880001\t5\t6500\n")

	assert.Equal(t, []string{"barcode", "qty", "amount"}, table.Headers)
}

func TestParseDetectsPipe(t *testing.T) {
	table := Parse("barcode|qty|amount\n880001|5|6500\n")

	assert.Equal(t, []string{"barcode", "qty", "amount"}, table.Headers)
}

func TestParseDelimiterTieFallsBackToComma(t *testing.T) {
	// No delimiter appears at all; every candidate scores the same and the
	// single column survives intact.
	table := Parse("barcode\n880001\n")

	assert.Equal(t, []string{"barcode"}, table.Headers)
	assert.Equal(t, []string{"880001"}, table.Rows[0])
}

func TestParsePrefersConsistentColumnCount(t *testing.T) {
	// Semicolons give 3 columns on every line; commas appear only in one
	// quoted-looking value and would split lines unevenly.
	table := Parse("name;qty;amount\nmug, large;2;24,000\npin;1;3,000\n")

	assert.Equal(t, []string{"name", "qty", "amount"}, table.Headers)
	assert.Equal(t, []string{"mug, large", "2", "24,000"}, table.Rows[0])
}

func TestSplitLineQuotes(t *testing.T) {
	fields := splitLine(`"a,b",c`, ',')
	assert.Equal(t, []string{"a,b", "c"}, fields)
}

func TestSplitLineDoubledQuote(t *testing.T) {
	fields := splitLine(`"say ""hi""",x`, ',')
	assert.Equal(t, []string{`say "hi"`, "x"}, fields)
}

func TestSplitLineEscapedQuoteAtFieldEdge(t *testing.T) {
	// Escaped quotes that land at the very start or end of the field value
	// are literal data and must survive field cleanup.
	fields := splitLine(`"""quoted""",x`, ',')
	assert.Equal(t, []string{`"quoted"`, "x"}, fields)
}

func TestSplitLineTrimsFields(t *testing.T) {
	fields := splitLine(`  880001 , " 5 " ,6500`, ',')
	assert.Equal(t, []string{"880001", "5", "6500"}, fields)
}

func TestCellToleratesShortRows(t *testing.T) {
	row := []string{"a", "b"}

	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}
