// internal/settlement/legacy_preview_test.go
package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLegacyPreviewMatchesByName(t *testing.T) {
	products, stores := testRefs()
	row := LegacyRow{ProductName: "머그컵", Qty: 5, UnitPrice: 1300, Amount: 6500}

	rows := BuildLegacyPreview([]LegacyRow{row}, "연남 소품샵", "2026-07", "KRW", products, stores)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, StatusOK, got.Status)
	require.NotNil(t, got.StoreID)
	assert.Equal(t, testStoreID, *got.StoreID)
	require.NotNil(t, got.ProductID)
	assert.Equal(t, testProductID, *got.ProductID)
	assert.Equal(t, "머그컵", got.ProductName)
	// Matched rows inherit the catalog barcode.
	assert.Equal(t, "880001", got.Barcode)
}

func TestBuildLegacyPreviewMatchesBySKU(t *testing.T) {
	products, stores := testRefs()
	row := LegacyRow{ProductName: "머그컵(신형)", SKU: "880001", Qty: 2, UnitPrice: 1300, Amount: 2600}

	rows := BuildLegacyPreview([]LegacyRow{row}, "연남 소품샵", "2026-07", "KRW", products, stores)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, StatusOK, got.Status)
	require.NotNil(t, got.ProductID)
	assert.Equal(t, testProductID, *got.ProductID)
	assert.Equal(t, "머그컵", got.ProductName)
}

func TestBuildLegacyPreviewDerivesAmountFromUnitPrice(t *testing.T) {
	products, stores := testRefs()
	row := LegacyRow{ProductName: "머그컵", Qty: 3, UnitPrice: 1300}

	rows := BuildLegacyPreview([]LegacyRow{row}, "연남 소품샵", "2026-07", "KRW", products, stores)
	require.Len(t, rows, 1)

	assert.Equal(t, StatusOK, rows[0].Status)
	assert.Equal(t, int64(3900), rows[0].Amount)
}

func TestBuildLegacyPreviewUnknownNameKeepsStoreID(t *testing.T) {
	products, stores := testRefs()
	row := LegacyRow{ProductName: "없는 제품", Qty: 1, UnitPrice: 1000, Amount: 1000}

	rows := BuildLegacyPreview([]LegacyRow{row}, "연남 소품샵", "2026-07", "KRW", products, stores)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "제품명에 해당하는 제품이 없습니다", got.Error)
	require.NotNil(t, got.StoreID)
	assert.Equal(t, testStoreID, *got.StoreID)
	assert.Nil(t, got.ProductID)
}

func TestBuildLegacyPreviewValidationOrder(t *testing.T) {
	products, stores := testRefs()

	cases := []struct {
		name      string
		store     string
		row       LegacyRow
		wantError string
	}{
		{
			name:      "blank product name",
			store:     "연남 소품샵",
			row:       LegacyRow{ProductName: "", Qty: 5, UnitPrice: 1300, Amount: 6500},
			wantError: "제품명이 비어 있습니다",
		},
		{
			name:      "zero quantity",
			store:     "연남 소품샵",
			row:       LegacyRow{ProductName: "머그컵", Qty: 0, UnitPrice: 1300},
			wantError: "판매수량이 0 이하입니다",
		},
		{
			name:      "zero unit price",
			store:     "연남 소품샵",
			row:       LegacyRow{ProductName: "머그컵", Qty: 5},
			wantError: "단가가 0 이하입니다",
		},
		{
			name:      "unknown store",
			store:     "없는 가게",
			row:       LegacyRow{ProductName: "머그컵", Qty: 5, UnitPrice: 1300, Amount: 6500},
			wantError: "입점처를 찾을 수 없습니다: 없는 가게",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := BuildLegacyPreview([]LegacyRow{tc.row}, tc.store, "2026-07", "KRW", products, stores)
			require.Len(t, rows, 1)
			assert.Equal(t, StatusError, rows[0].Status)
			assert.Equal(t, tc.wantError, rows[0].Error)
		})
	}
}

func TestLegacyPreviewRowsAggregate(t *testing.T) {
	products, stores := testRefs()
	rows := BuildLegacyPreview([]LegacyRow{
		{ProductName: "머그컵", Qty: 2, UnitPrice: 1300, Amount: 2600},
		{ProductName: "머그컵", Qty: 3, UnitPrice: 1300, Amount: 3900},
	}, "연남 소품샵", "2026-07", "KRW", products, stores)
	require.True(t, CanApply(rows))

	groups := Aggregate(rows, Options{})
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Lines, 1)
	assert.Equal(t, 5, groups[0].Lines[0].QtySold)
	assert.Equal(t, int64(6500), groups[0].GrossAmount)
}
