// internal/settlement/preview_test.go
package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testStoreID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testProductID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func testRefs() ([]ProductRef, []StoreRef) {
	products := []ProductRef{
		{ID: testProductID, Name: "머그컵", Barcode: "880001", Price: 12000},
	}
	stores := []StoreRef{
		{ID: testStoreID, Name: "연남 소품샵"},
	}
	return products, stores
}

func okRow() MappedRow {
	return MappedRow{Barcode: "880001", SoldQty: 5, Amount: 6500, UnitPrice: 1300}
}

func TestBuildPreviewValidRow(t *testing.T) {
	products, stores := testRefs()

	rows := BuildPreview([]MappedRow{okRow()}, "연남 소품샵", "2026-07", "KRW", products, stores)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 1, row.Seq)
	assert.Equal(t, StatusOK, row.Status)
	assert.Empty(t, row.Error)
	require.NotNil(t, row.StoreID)
	assert.Equal(t, testStoreID, *row.StoreID)
	require.NotNil(t, row.ProductID)
	assert.Equal(t, testProductID, *row.ProductID)
	assert.Equal(t, "머그컵", row.ProductName)
}

func TestBuildPreviewTrimsStoreName(t *testing.T) {
	products, stores := testRefs()

	rows := BuildPreview([]MappedRow{okRow()}, "  연남 소품샵  ", "2026-07", "KRW", products, stores)

	assert.Equal(t, StatusOK, rows[0].Status)
}

func TestValidationOrderFirstFailureWins(t *testing.T) {
	products, stores := testRefs()

	cases := []struct {
		name      string
		store     string
		period    string
		currency  string
		row       MappedRow
		wantError string
	}{
		{
			name:      "blank store beats bad period",
			store:     "",
			period:    "bogus",
			currency:  "KRW",
			row:       okRow(),
			wantError: "입점처명이 비어 있습니다",
		},
		{
			name:      "bad period format",
			store:     "연남 소품샵",
			period:    "2026/07",
			currency:  "KRW",
			row:       okRow(),
			wantError: "정산월 형식이 올바르지 않습니다 (YYYY-MM)",
		},
		{
			name:      "blank barcode",
			store:     "연남 소품샵",
			period:    "2026-07",
			currency:  "KRW",
			row:       MappedRow{Barcode: "", SoldQty: 5, Amount: 6500, UnitPrice: 1300},
			wantError: "바코드가 비어 있습니다",
		},
		{
			name:      "zero quantity",
			store:     "연남 소품샵",
			period:    "2026-07",
			currency:  "KRW",
			row:       MappedRow{Barcode: "880001", SoldQty: 0, Amount: 6500, UnitPrice: 0},
			wantError: "판매수량이 0 이하입니다",
		},
		{
			name:      "zero unit price",
			store:     "연남 소품샵",
			period:    "2026-07",
			currency:  "KRW",
			row:       MappedRow{Barcode: "880001", SoldQty: 5, Amount: 0, UnitPrice: 0},
			wantError: "단가가 0 이하입니다",
		},
		{
			name:      "unsupported currency",
			store:     "연남 소품샵",
			period:    "2026-07",
			currency:  "USD",
			row:       okRow(),
			wantError: "지원하지 않는 통화입니다 (KRW만 지원)",
		},
		{
			name:      "unknown store",
			store:     "없는 가게",
			period:    "2026-07",
			currency:  "KRW",
			row:       okRow(),
			wantError: "입점처를 찾을 수 없습니다: 없는 가게",
		},
		{
			name:      "unknown barcode",
			store:     "연남 소품샵",
			period:    "2026-07",
			currency:  "KRW",
			row:       MappedRow{Barcode: "999999", SoldQty: 5, Amount: 6500, UnitPrice: 1300},
			wantError: "바코드에 해당하는 제품이 없습니다",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := BuildPreview([]MappedRow{tc.row}, tc.store, tc.period, tc.currency, products, stores)
			require.Len(t, rows, 1)
			assert.Equal(t, StatusError, rows[0].Status)
			assert.Equal(t, tc.wantError, rows[0].Error)
		})
	}
}

func TestUnknownBarcodeKeepsStoreID(t *testing.T) {
	products, stores := testRefs()
	row := MappedRow{Barcode: "999999", SoldQty: 5, Amount: 6500, UnitPrice: 1300}

	rows := BuildPreview([]MappedRow{row}, "연남 소품샵", "2026-07", "KRW", products, stores)

	require.NotNil(t, rows[0].StoreID)
	assert.Equal(t, testStoreID, *rows[0].StoreID)
	assert.Nil(t, rows[0].ProductID)
}

func TestOneBrokenRowDoesNotBlockOthers(t *testing.T) {
	products, stores := testRefs()
	rows := BuildPreview([]MappedRow{
		{Barcode: "999999", SoldQty: 1, Amount: 1000, UnitPrice: 1000},
		okRow(),
	}, "연남 소품샵", "2026-07", "KRW", products, stores)

	assert.Equal(t, StatusError, rows[0].Status)
	assert.Equal(t, StatusOK, rows[1].Status)
	assert.Equal(t, 2, rows[1].Seq)
}

func TestResolveProduct(t *testing.T) {
	products, stores := testRefs()
	row := MappedRow{Barcode: "999999", SoldQty: 5, Amount: 6500, UnitPrice: 1300}

	rows := BuildPreview([]MappedRow{row}, "연남 소품샵", "2026-07", "KRW", products, stores)
	require.Equal(t, StatusError, rows[0].Status)

	rows[0].ResolveProduct(products[0])

	assert.Equal(t, StatusOK, rows[0].Status)
	assert.Empty(t, rows[0].Error)
	assert.True(t, rows[0].Manual)
	require.NotNil(t, rows[0].ProductID)
	assert.Equal(t, testProductID, *rows[0].ProductID)
}

func TestCanApply(t *testing.T) {
	products, stores := testRefs()
	rows := BuildPreview([]MappedRow{
		okRow(),
		{Barcode: "999999", SoldQty: 1, Amount: 1000, UnitPrice: 1000},
	}, "연남 소품샵", "2026-07", "KRW", products, stores)

	assert.False(t, CanApply(rows))

	// Ignoring the broken row opens the gate.
	rows[1].Ignored = true
	assert.True(t, CanApply(rows))

	// An ignored ok row changes nothing.
	rows[0].Ignored = true
	assert.True(t, CanApply(rows))
}
