// internal/settlement/aggregate_test.go
package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func previewRow(storeID, productID uuid.UUID, period string, qty int, unit int64) PreviewRow {
	return PreviewRow{
		StoreName:   "가게",
		PeriodMonth: period,
		Barcode:     "880001",
		SoldQty:     qty,
		UnitPrice:   unit,
		Amount:      int64(qty) * unit,
		Currency:    "KRW",
		StoreID:     &storeID,
		ProductID:   &productID,
		Status:      StatusOK,
	}
}

func TestAggregateSumsQuantitiesAndGross(t *testing.T) {
	storeID := uuid.New()
	productID := uuid.New()

	groups := Aggregate([]PreviewRow{
		previewRow(storeID, productID, "2026-07", 2, 1000),
		previewRow(storeID, productID, "2026-07", 3, 1500),
	}, Options{})

	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, storeID, g.Key.StoreID)
	assert.Equal(t, "2026-07", g.Key.PeriodMonth)
	assert.Equal(t, 2, g.RowsCount)
	assert.Equal(t, int64(6500), g.GrossAmount)

	require.Len(t, g.Lines, 1)
	line := g.Lines[0]
	assert.Equal(t, 5, line.QtySold)
	// Per-row amounts are accumulated, not recomputed from the aggregated
	// quantity times the surviving unit price.
	assert.Equal(t, int64(6500), line.GrossAmount)
	assert.Equal(t, int64(1500), line.UnitPrice)
}

func TestAggregateUnitPriceFirstPolicy(t *testing.T) {
	storeID := uuid.New()
	productID := uuid.New()

	groups := Aggregate([]PreviewRow{
		previewRow(storeID, productID, "2026-07", 2, 1000),
		previewRow(storeID, productID, "2026-07", 3, 1500),
	}, Options{UnitPricePolicy: UnitPriceFirst})

	require.Len(t, groups, 1)
	assert.Equal(t, int64(1000), groups[0].Lines[0].UnitPrice)
	assert.Equal(t, int64(6500), groups[0].Lines[0].GrossAmount)
}

func TestAggregateSplitsByStoreAndPeriod(t *testing.T) {
	storeA := uuid.New()
	storeB := uuid.New()
	productID := uuid.New()

	groups := Aggregate([]PreviewRow{
		previewRow(storeA, productID, "2026-07", 1, 1000),
		previewRow(storeB, productID, "2026-07", 1, 1000),
		previewRow(storeA, productID, "2026-08", 1, 1000),
	}, Options{})

	require.Len(t, groups, 3)
	// Insertion order is preserved.
	assert.Equal(t, storeA, groups[0].Key.StoreID)
	assert.Equal(t, "2026-07", groups[0].Key.PeriodMonth)
	assert.Equal(t, storeB, groups[1].Key.StoreID)
	assert.Equal(t, "2026-08", groups[2].Key.PeriodMonth)
}

func TestAggregateSkipsIgnoredAndErrorRows(t *testing.T) {
	storeID := uuid.New()
	productID := uuid.New()

	ignored := previewRow(storeID, productID, "2026-07", 2, 1000)
	ignored.Ignored = true

	broken := previewRow(storeID, productID, "2026-07", 3, 1000)
	broken.Status = StatusError

	groups := Aggregate([]PreviewRow{
		ignored,
		broken,
		previewRow(storeID, productID, "2026-07", 1, 1000),
	}, Options{})

	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].RowsCount)
	assert.Equal(t, int64(1000), groups[0].GrossAmount)
}

func TestAggregateMarksManualLines(t *testing.T) {
	storeID := uuid.New()
	productID := uuid.New()

	manual := previewRow(storeID, productID, "2026-07", 1, 1000)
	manual.Manual = true

	groups := Aggregate([]PreviewRow{
		previewRow(storeID, productID, "2026-07", 1, 1000),
		manual,
	}, Options{})

	require.Len(t, groups, 1)
	assert.True(t, groups[0].Lines[0].ManualMatch)
}

func TestResolveRatePrecedence(t *testing.T) {
	storeRate := 25.0
	settingRate := 0.3

	// Marketplace setting wins over the store percentage.
	assert.Equal(t, 0.3, ResolveRate(&settingRate, StoreRef{CommissionRate: &storeRate}))

	// Store percentage is converted from 0-100 to a fraction.
	assert.Equal(t, 0.25, ResolveRate(nil, StoreRef{CommissionRate: &storeRate}))

	// Nothing configured means no commission.
	assert.Equal(t, 0.0, ResolveRate(nil, StoreRef{}))
}

func TestCommission(t *testing.T) {
	commission, net := Commission(6500, 0.25)
	assert.Equal(t, int64(1625), commission)
	assert.Equal(t, int64(4875), net)

	commission, net = Commission(1001, 0.105)
	assert.Equal(t, int64(105), commission)
	assert.Equal(t, int64(896), net)

	commission, net = Commission(10000, 0)
	assert.Equal(t, int64(0), commission)
	assert.Equal(t, int64(10000), net)
}
