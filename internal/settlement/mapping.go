// internal/settlement/mapping.go
package settlement

import (
	"fmt"
	"math"
	"strings"

	"github.com/settly-kr/settly-backend/internal/csvutil"
)

// Mapping binds the marketplace-settlement CSV columns. Barcode, SoldQty and
// Amount hold header names from the uploaded file; empty means the guess
// failed and the user has to pick manually.
type Mapping struct {
	Barcode string `json:"barcode"`
	SoldQty string `json:"sold_qty"`
	Amount  string `json:"amount"`
}

// LegacyMapping is the older manual-mapping upload contract keyed by product
// name instead of barcode. SKU, UnitPrice and Amount are optional.
type LegacyMapping struct {
	ProductName string `json:"product_name"`
	Qty         string `json:"qty"`
	SKU         string `json:"sku,omitempty"`
	UnitPrice   string `json:"unit_price,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

var (
	barcodeSynonyms = []string{"barcode", "바코드", "barcd", "bcode", "jancode", "jan"}
	soldQtySynonyms = []string{"soldqty", "qty", "quantity", "수량", "판매수량", "판매량", "salesqty", "count"}
	amountSynonyms  = []string{"amount", "금액", "판매금액", "매출", "매출액", "total", "sales", "price합계"}

	productNameSynonyms = []string{"productname", "name", "제품명", "상품명", "품명", "item", "product"}
	skuSynonyms         = []string{"sku", "품번", "코드", "code"}
	unitPriceSynonyms   = []string{"unitprice", "단가", "판매단가", "price"}
)

// MappedRow is one settlement CSV row after column mapping and numeric
// extraction, before catalog validation.
type MappedRow struct {
	Barcode   string `json:"barcode"`
	SoldQty   int    `json:"sold_qty"`
	Amount    int64  `json:"amount"`
	UnitPrice int64  `json:"unit_price"`
}

// LegacyRow is one row of the legacy product-name upload.
type LegacyRow struct {
	ProductName string `json:"product_name"`
	Qty         int    `json:"qty"`
	SKU         string `json:"sku"`
	UnitPrice   int64  `json:"unit_price"`
	Amount      int64  `json:"amount"`
}

// GuessMapping guesses settlement columns from the header row.
func GuessMapping(headers []string) Mapping {
	return Mapping{
		Barcode: guessColumn(headers, barcodeSynonyms),
		SoldQty: guessColumn(headers, soldQtySynonyms),
		Amount:  guessColumn(headers, amountSynonyms),
	}
}

// GuessLegacyMapping guesses legacy columns from the header row.
func GuessLegacyMapping(headers []string) LegacyMapping {
	return LegacyMapping{
		ProductName: guessColumn(headers, productNameSynonyms),
		Qty:         guessColumn(headers, soldQtySynonyms),
		SKU:         guessColumn(headers, skuSynonyms),
		UnitPrice:   guessColumn(headers, unitPriceSynonyms),
		Amount:      guessColumn(headers, amountSynonyms),
	}
}

// guessColumn normalizes every header and tries each synonym exactly first,
// then substring containment in either direction. First hit wins.
func guessColumn(headers []string, synonyms []string) string {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	for _, syn := range synonyms {
		want := normalizeHeader(syn)
		for i, h := range normalized {
			if h == want {
				return headers[i]
			}
		}
	}

	for _, syn := range synonyms {
		want := normalizeHeader(syn)
		for i, h := range normalized {
			if h == "" || want == "" {
				continue
			}
			if strings.Contains(h, want) || strings.Contains(want, h) {
				return headers[i]
			}
		}
	}

	return ""
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "", "\t", "", "_", "", "-", "").Replace(s)
	return s
}

// columnIndex re-validates the mapped name against the actual headers. The
// UI may have accepted a mapping and then had the file swapped underneath
// it, so this check runs at extraction time, not only at mapping time.
func columnIndex(headers []string, name, field string) (int, error) {
	for i, h := range headers {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("매핑된 열 '%s'(%s)이(가) 파일에 없습니다", name, field)
}

// ExtractRows maps every raw row through m. Rows with invalid quantity or
// amount are still emitted with unit_price 0 so validation can flag them;
// fully blank rows are silently dropped. Unit price is always derived from
// amount/qty, never read from a column.
func ExtractRows(t csvutil.Table, m Mapping) ([]MappedRow, error) {
	if m.Barcode == "" || m.SoldQty == "" || m.Amount == "" {
		return nil, fmt.Errorf("바코드/수량/금액 열 매핑이 완료되지 않았습니다")
	}

	barcodeIdx, err := columnIndex(t.Headers, m.Barcode, "barcode")
	if err != nil {
		return nil, err
	}
	qtyIdx, err := columnIndex(t.Headers, m.SoldQty, "sold_qty")
	if err != nil {
		return nil, err
	}
	amountIdx, err := columnIndex(t.Headers, m.Amount, "amount")
	if err != nil {
		return nil, err
	}

	rows := make([]MappedRow, 0, len(t.Rows))
	for _, raw := range t.Rows {
		barcode := strings.TrimSpace(csvutil.Cell(raw, barcodeIdx))
		qty := csvutil.ParseIntSafe(csvutil.Cell(raw, qtyIdx))
		amount := csvutil.ParseMoneySafe(csvutil.Cell(raw, amountIdx))

		if barcode == "" && qty == 0 && amount == 0 {
			continue
		}

		var unitPrice int64
		if qty > 0 && amount > 0 {
			unitPrice = int64(math.Round(float64(amount) / float64(qty)))
		}

		rows = append(rows, MappedRow{
			Barcode:   barcode,
			SoldQty:   qty,
			Amount:    amount,
			UnitPrice: unitPrice,
		})
	}

	return rows, nil
}

// ExtractLegacyRows maps raw rows through the legacy contract. ProductName
// and Qty are required; unit price is taken from its column when mapped and
// derived from amount/qty otherwise.
func ExtractLegacyRows(t csvutil.Table, m LegacyMapping) ([]LegacyRow, error) {
	if m.ProductName == "" || m.Qty == "" {
		return nil, fmt.Errorf("제품명/수량 열 매핑이 완료되지 않았습니다")
	}

	nameIdx, err := columnIndex(t.Headers, m.ProductName, "product_name")
	if err != nil {
		return nil, err
	}
	qtyIdx, err := columnIndex(t.Headers, m.Qty, "qty")
	if err != nil {
		return nil, err
	}

	skuIdx, unitIdx, amountIdx := -1, -1, -1
	if m.SKU != "" {
		if skuIdx, err = columnIndex(t.Headers, m.SKU, "sku"); err != nil {
			return nil, err
		}
	}
	if m.UnitPrice != "" {
		if unitIdx, err = columnIndex(t.Headers, m.UnitPrice, "unit_price"); err != nil {
			return nil, err
		}
	}
	if m.Amount != "" {
		if amountIdx, err = columnIndex(t.Headers, m.Amount, "amount"); err != nil {
			return nil, err
		}
	}

	rows := make([]LegacyRow, 0, len(t.Rows))
	for _, raw := range t.Rows {
		name := strings.TrimSpace(csvutil.Cell(raw, nameIdx))
		qty := csvutil.ParseIntSafe(csvutil.Cell(raw, qtyIdx))

		var sku string
		if skuIdx >= 0 {
			sku = strings.TrimSpace(csvutil.Cell(raw, skuIdx))
		}
		var unitPrice, amount int64
		if unitIdx >= 0 {
			unitPrice = csvutil.ParseMoneySafe(csvutil.Cell(raw, unitIdx))
		}
		if amountIdx >= 0 {
			amount = csvutil.ParseMoneySafe(csvutil.Cell(raw, amountIdx))
		}

		if name == "" && qty == 0 && amount == 0 {
			continue
		}

		if unitPrice == 0 && qty > 0 && amount > 0 {
			unitPrice = int64(math.Round(float64(amount) / float64(qty)))
		}

		rows = append(rows, LegacyRow{
			ProductName: name,
			Qty:         qty,
			SKU:         sku,
			UnitPrice:   unitPrice,
			Amount:      amount,
		})
	}

	return rows, nil
}
