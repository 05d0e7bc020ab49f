// internal/csvutil/numbers_test.go
package csvutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntSafe(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"5", 5},
		{"1,234", 1234},
		{"  12  ", 12},
		{"3.7", 3},
		{"-5", 0},
		{"", 0},
		{"abc", 0},
		{"₩1,500", 1500},
		{"12원", 12},
		{"1 234", 1234},
		{"1\u00a0500", 1500},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseIntSafe(tc.in), "input %q", tc.in)
	}
}

func TestParseMoneySafe(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"6500", 6500},
		{"6,500원", 6500},
		{"₩24,000", 24000},
		{"$1,000", 1000},
		{"1234.6", 1235},
		{"1234.4", 1234},
		{"-100", 0},
		{"", 0},
		{"won", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseMoneySafe(tc.in), "input %q", tc.in)
	}
}

func TestSettlementTemplateStartsWithBOM(t *testing.T) {
	data := SettlementTemplate()

	assert.True(t, len(data) > 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Contains(t, string(data), "barcode,sold_qty,amount")
}
