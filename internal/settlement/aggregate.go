// internal/settlement/aggregate.go
package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitPricePolicy picks which row's derived unit price an aggregated line
// keeps when the same product appears more than once in one upload.
type UnitPricePolicy string

const (
	// UnitPriceLast keeps the last occurrence, mirroring most-recent price.
	UnitPriceLast UnitPricePolicy = "last"
	// UnitPriceFirst keeps the first occurrence.
	UnitPriceFirst UnitPricePolicy = "first"
)

type Options struct {
	UnitPricePolicy UnitPricePolicy
}

// GroupKey identifies one settlement: a store and a YYYY-MM period.
type GroupKey struct {
	StoreID     uuid.UUID `json:"store_id"`
	PeriodMonth string    `json:"period_month"`
}

// Line is one aggregated product within a group. GrossAmount accumulates
// the original per-row qty*unit amounts, so it is not recomputed from the
// aggregated QtySold times the surviving UnitPrice.
type Line struct {
	ProductID          uuid.UUID `json:"product_id"`
	ProductNameRaw     string    `json:"product_name_raw"`
	ProductNameMatched string    `json:"product_name_matched"`
	QtySold            int       `json:"qty_sold"`
	UnitPrice          int64     `json:"unit_price"`
	GrossAmount        int64     `json:"gross_amount"`
	ManualMatch        bool      `json:"manual_match"`
}

// Group is one (store, period) settlement with its aggregated lines.
type Group struct {
	Key         GroupKey `json:"key"`
	Lines       []Line   `json:"lines"`
	GrossAmount int64    `json:"gross_amount"`
	RowsCount   int      `json:"rows_count"`
}

// Aggregate groups the ok, non-ignored preview rows by (store, period) and
// sums quantities per product. Group and line order follows first
// appearance in the upload.
func Aggregate(rows []PreviewRow, opts Options) []Group {
	policy := opts.UnitPricePolicy
	if policy == "" {
		policy = UnitPriceLast
	}

	var groups []Group
	groupIdx := make(map[GroupKey]int)
	lineIdx := make(map[GroupKey]map[uuid.UUID]int)

	for i := range rows {
		row := &rows[i]
		if row.Ignored || row.Status != StatusOK || row.StoreID == nil || row.ProductID == nil {
			continue
		}

		key := GroupKey{StoreID: *row.StoreID, PeriodMonth: row.PeriodMonth}
		gi, ok := groupIdx[key]
		if !ok {
			gi = len(groups)
			groupIdx[key] = gi
			lineIdx[key] = make(map[uuid.UUID]int)
			groups = append(groups, Group{Key: key})
		}
		g := &groups[gi]
		g.RowsCount++

		rowGross := int64(row.SoldQty) * row.UnitPrice
		g.GrossAmount += rowGross

		li, ok := lineIdx[key][*row.ProductID]
		if !ok {
			lineIdx[key][*row.ProductID] = len(g.Lines)
			g.Lines = append(g.Lines, Line{
				ProductID:          *row.ProductID,
				ProductNameRaw:     row.ProductName,
				ProductNameMatched: row.ProductName,
				QtySold:            row.SoldQty,
				UnitPrice:          row.UnitPrice,
				GrossAmount:        rowGross,
				ManualMatch:        row.Manual,
			})
			continue
		}

		line := &g.Lines[li]
		line.QtySold += row.SoldQty
		line.GrossAmount += rowGross
		line.ManualMatch = line.ManualMatch || row.Manual
		if policy == UnitPriceLast {
			line.UnitPrice = row.UnitPrice
		}
	}

	return groups
}

// ResolveRate picks the commission rate for a store: the marketplace-settings
// fraction when present, otherwise the store's 0-100 percentage divided by
// 100, otherwise zero.
func ResolveRate(settingRate *float64, store StoreRef) float64 {
	if settingRate != nil {
		return *settingRate
	}
	if store.CommissionRate != nil {
		return *store.CommissionRate / 100
	}
	return 0
}

// Commission computes round(gross*rate) and the remaining net amount.
func Commission(gross int64, rate float64) (commission int64, net int64) {
	commission = decimal.NewFromInt(gross).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart()
	net = gross - commission
	return commission, net
}
