// internal/csvutil/template.go
package csvutil

import (
	"bytes"
)

// SettlementTemplate builds the downloadable upload template. The header row
// is bit-exact what the default mapping guess expects; the BOM keeps Excel
// from mangling Korean text.
func SettlementTemplate() []byte {
	var b bytes.Buffer
	b.WriteString("\ufeff")
	b.WriteString("barcode,sold_qty,amount\r\n")
	b.WriteString("8801234567890,2,2000\r\n")
	b.WriteString("8809876543210,1,15000\r\n")
	return b.Bytes()
}
