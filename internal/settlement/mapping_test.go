// internal/settlement/mapping_test.go
package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settly-kr/settly-backend/internal/csvutil"
)

func TestGuessMappingKoreanHeaders(t *testing.T) {
	m := GuessMapping([]string{"바코드", "판매수량", "금액"})

	assert.Equal(t, "바코드", m.Barcode)
	assert.Equal(t, "판매수량", m.SoldQty)
	assert.Equal(t, "금액", m.Amount)
}

func TestGuessMappingEnglishHeaders(t *testing.T) {
	m := GuessMapping([]string{"Barcode", "Sold Qty", "Amount"})

	assert.Equal(t, "Barcode", m.Barcode)
	assert.Equal(t, "Sold Qty", m.SoldQty)
	assert.Equal(t, "Amount", m.Amount)
}

func TestGuessMappingContainment(t *testing.T) {
	// No exact synonym match; containment in either direction still finds
	// the columns.
	m := GuessMapping([]string{"상품바코드", "총판매수량", "정산금액"})

	assert.Equal(t, "상품바코드", m.Barcode)
	assert.Equal(t, "총판매수량", m.SoldQty)
	assert.Equal(t, "정산금액", m.Amount)
}

func TestGuessMappingUnknownHeaders(t *testing.T) {
	m := GuessMapping([]string{"foo", "bar", "baz"})

	assert.Empty(t, m.Barcode)
	assert.Empty(t, m.SoldQty)
	assert.Empty(t, m.Amount)
}

func TestGuessLegacyMapping(t *testing.T) {
	m := GuessLegacyMapping([]string{"제품명", "수량", "단가", "금액"})

	assert.Equal(t, "제품명", m.ProductName)
	assert.Equal(t, "수량", m.Qty)
	assert.Equal(t, "단가", m.UnitPrice)
	assert.Equal(t, "금액", m.Amount)
}

func TestExtractRowsDerivesUnitPrice(t *testing.T) {
	table := csvutil.Table{
		Headers: []string{"barcode", "sold_qty", "amount"},
		Rows: [][]string{
			{"880001", "5", "6,500"},
		},
	}

	rows, err := ExtractRows(table, Mapping{Barcode: "barcode", SoldQty: "sold_qty", Amount: "amount"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "880001", rows[0].Barcode)
	assert.Equal(t, 5, rows[0].SoldQty)
	assert.Equal(t, int64(6500), rows[0].Amount)
	assert.Equal(t, int64(1300), rows[0].UnitPrice)
}

func TestExtractRowsRoundsDerivedUnitPrice(t *testing.T) {
	table := csvutil.Table{
		Headers: []string{"barcode", "sold_qty", "amount"},
		Rows: [][]string{
			{"880001", "3", "1000"},
		},
	}

	rows, err := ExtractRows(table, Mapping{Barcode: "barcode", SoldQty: "sold_qty", Amount: "amount"})
	require.NoError(t, err)

	// 1000/3 = 333.33..., rounded
	assert.Equal(t, int64(333), rows[0].UnitPrice)
}

func TestExtractRowsSkipsBlankRows(t *testing.T) {
	table := csvutil.Table{
		Headers: []string{"barcode", "sold_qty", "amount"},
		Rows: [][]string{
			{"", "", ""},
			{"880001", "1", "1000"},
			{"", "0", "0"},
		},
	}

	rows, err := ExtractRows(table, Mapping{Barcode: "barcode", SoldQty: "sold_qty", Amount: "amount"})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "880001", rows[0].Barcode)
}

func TestExtractRowsKeepsAmountOnlyRow(t *testing.T) {
	// A row with an amount but no quantity is kept with unit price 0 so the
	// preview can flag it instead of silently dropping revenue.
	table := csvutil.Table{
		Headers: []string{"barcode", "sold_qty", "amount"},
		Rows: [][]string{
			{"880001", "", "5000"},
		},
	}

	rows, err := ExtractRows(table, Mapping{Barcode: "barcode", SoldQty: "sold_qty", Amount: "amount"})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].SoldQty)
	assert.Equal(t, int64(5000), rows[0].Amount)
	assert.Equal(t, int64(0), rows[0].UnitPrice)
}

func TestExtractRowsIncompleteMapping(t *testing.T) {
	table := csvutil.Table{Headers: []string{"barcode", "sold_qty", "amount"}}

	_, err := ExtractRows(table, Mapping{Barcode: "barcode"})
	assert.Error(t, err)
}

func TestExtractRowsMappedColumnMissing(t *testing.T) {
	table := csvutil.Table{Headers: []string{"barcode", "sold_qty", "amount"}}

	_, err := ExtractRows(table, Mapping{Barcode: "없는열", SoldQty: "sold_qty", Amount: "amount"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "없는열")
}

func TestExtractLegacyRows(t *testing.T) {
	table := csvutil.Table{
		Headers: []string{"제품명", "수량", "금액"},
		Rows: [][]string{
			{"연필", "4", "2000"},
			{"", "", ""},
		},
	}

	rows, err := ExtractLegacyRows(table, LegacyMapping{ProductName: "제품명", Qty: "수량", Amount: "금액"})
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "연필", rows[0].ProductName)
	assert.Equal(t, 4, rows[0].Qty)
	assert.Equal(t, int64(500), rows[0].UnitPrice)
}

func TestExtractLegacyRowsPrefersMappedUnitPrice(t *testing.T) {
	table := csvutil.Table{
		Headers: []string{"제품명", "수량", "단가", "금액"},
		Rows: [][]string{
			{"연필", "4", "450", "2000"},
		},
	}

	rows, err := ExtractLegacyRows(table, LegacyMapping{ProductName: "제품명", Qty: "수량", UnitPrice: "단가", Amount: "금액"})
	require.NoError(t, err)

	assert.Equal(t, int64(450), rows[0].UnitPrice)
}
