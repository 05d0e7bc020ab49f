// internal/settlement/preview.go
package settlement

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ProductRef is a catalog snapshot entry used for row validation.
type ProductRef struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Barcode string    `json:"barcode"`
	Price   int64     `json:"price"`
}

// StoreRef is a store snapshot entry. CommissionRate is the store-level
// 0-100 percentage, nil when unset.
type StoreRef struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CommissionRate *float64  `json:"commission_rate,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// PreviewRow is one validated upload row shown to the user before apply.
// Seq is 1-based. A row that failed only product matching keeps its resolved
// StoreID so manual resolution does not have to re-derive the store.
type PreviewRow struct {
	Seq         int        `json:"seq"`
	StoreName   string     `json:"store_name"`
	PeriodMonth string     `json:"period_month"`
	Barcode     string     `json:"barcode"`
	SoldQty     int        `json:"sold_qty"`
	UnitPrice   int64      `json:"unit_price"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	StoreID     *uuid.UUID `json:"store_id,omitempty"`
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductName string     `json:"product_name,omitempty"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Ignored     bool       `json:"ignored"`
	Manual      bool       `json:"manual,omitempty"`
}

var periodMonthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// BuildPreview cross-references mapped rows against the current catalog and
// store snapshots. Rules run in order and the first failure wins; rows are
// validated independently so one broken row never blocks the rest.
func BuildPreview(rows []MappedRow, storeName, periodMonth, currency string, products []ProductRef, stores []StoreRef) []PreviewRow {
	storeName = strings.TrimSpace(storeName)
	currency = strings.TrimSpace(currency)

	preview := make([]PreviewRow, 0, len(rows))
	for i, row := range rows {
		p := PreviewRow{
			Seq:         i + 1,
			StoreName:   storeName,
			PeriodMonth: periodMonth,
			Barcode:     row.Barcode,
			SoldQty:     row.SoldQty,
			UnitPrice:   row.UnitPrice,
			Amount:      row.Amount,
			Currency:    currency,
			Status:      StatusOK,
		}
		validateRow(&p, products, stores)
		preview = append(preview, p)
	}

	return preview
}

func validateRow(p *PreviewRow, products []ProductRef, stores []StoreRef) {
	fail := func(msg string) {
		p.Status = StatusError
		p.Error = msg
	}

	if p.StoreName == "" {
		fail("입점처명이 비어 있습니다")
		return
	}
	if !periodMonthRe.MatchString(p.PeriodMonth) {
		fail("정산월 형식이 올바르지 않습니다 (YYYY-MM)")
		return
	}
	if strings.TrimSpace(p.Barcode) == "" {
		fail("바코드가 비어 있습니다")
		return
	}
	if p.SoldQty <= 0 {
		fail("판매수량이 0 이하입니다")
		return
	}
	if p.UnitPrice <= 0 {
		fail("단가가 0 이하입니다")
		return
	}
	if p.Currency != "KRW" {
		fail("지원하지 않는 통화입니다 (KRW만 지원)")
		return
	}

	var store *StoreRef
	for i := range stores {
		if strings.TrimSpace(stores[i].Name) == p.StoreName {
			store = &stores[i]
			break
		}
	}
	if store == nil {
		fail("입점처를 찾을 수 없습니다: " + p.StoreName)
		return
	}
	p.StoreID = &store.ID

	barcode := strings.TrimSpace(p.Barcode)
	for i := range products {
		if strings.TrimSpace(products[i].Barcode) == barcode {
			p.ProductID = &products[i].ID
			p.ProductName = products[i].Name
			return
		}
	}

	// StoreID stays set so the UI can offer manual product resolution.
	fail("바코드에 해당하는 제품이 없습니다")
}

// BuildLegacyPreview validates legacy product-name rows against the catalog.
// Matching tries the exact trimmed name first, then the SKU column against
// the catalog barcode. Matched rows inherit the catalog barcode so the rest
// of the flow is identical to the barcode upload.
func BuildLegacyPreview(rows []LegacyRow, storeName, periodMonth, currency string, products []ProductRef, stores []StoreRef) []PreviewRow {
	storeName = strings.TrimSpace(storeName)
	currency = strings.TrimSpace(currency)

	preview := make([]PreviewRow, 0, len(rows))
	for i, row := range rows {
		amount := row.Amount
		if amount == 0 && row.Qty > 0 && row.UnitPrice > 0 {
			amount = int64(row.Qty) * row.UnitPrice
		}

		p := PreviewRow{
			Seq:         i + 1,
			StoreName:   storeName,
			PeriodMonth: periodMonth,
			SoldQty:     row.Qty,
			UnitPrice:   row.UnitPrice,
			Amount:      amount,
			Currency:    currency,
			ProductName: strings.TrimSpace(row.ProductName),
			Status:      StatusOK,
		}
		validateLegacyRow(&p, strings.TrimSpace(row.SKU), products, stores)
		preview = append(preview, p)
	}

	return preview
}

func validateLegacyRow(p *PreviewRow, sku string, products []ProductRef, stores []StoreRef) {
	fail := func(msg string) {
		p.Status = StatusError
		p.Error = msg
	}

	if p.StoreName == "" {
		fail("입점처명이 비어 있습니다")
		return
	}
	if !periodMonthRe.MatchString(p.PeriodMonth) {
		fail("정산월 형식이 올바르지 않습니다 (YYYY-MM)")
		return
	}
	if p.ProductName == "" {
		fail("제품명이 비어 있습니다")
		return
	}
	if p.SoldQty <= 0 {
		fail("판매수량이 0 이하입니다")
		return
	}
	if p.UnitPrice <= 0 {
		fail("단가가 0 이하입니다")
		return
	}
	if p.Currency != "KRW" {
		fail("지원하지 않는 통화입니다 (KRW만 지원)")
		return
	}

	var store *StoreRef
	for i := range stores {
		if strings.TrimSpace(stores[i].Name) == p.StoreName {
			store = &stores[i]
			break
		}
	}
	if store == nil {
		fail("입점처를 찾을 수 없습니다: " + p.StoreName)
		return
	}
	p.StoreID = &store.ID

	match := func(ref ProductRef) {
		p.ProductID = &ref.ID
		p.ProductName = ref.Name
		p.Barcode = ref.Barcode
	}
	for i := range products {
		if strings.TrimSpace(products[i].Name) == p.ProductName {
			match(products[i])
			return
		}
	}
	if sku != "" {
		for i := range products {
			if strings.TrimSpace(products[i].Barcode) == sku {
				match(products[i])
				return
			}
		}
	}

	// StoreID stays set so the UI can offer manual product resolution.
	fail("제품명에 해당하는 제품이 없습니다")
}

// ResolveProduct promotes an unmatched row to ok with a manually chosen (or
// freshly created) product.
func (p *PreviewRow) ResolveProduct(ref ProductRef) {
	p.ProductID = &ref.ID
	p.ProductName = ref.Name
	p.Status = StatusOK
	p.Error = ""
	p.Manual = true
}

// CanApply reports whether every non-ignored row is ok. Ignored rows are
// excluded from the gate regardless of status.
func CanApply(rows []PreviewRow) bool {
	for i := range rows {
		if rows[i].Ignored {
			continue
		}
		if rows[i].Status != StatusOK {
			return false
		}
	}
	return true
}
