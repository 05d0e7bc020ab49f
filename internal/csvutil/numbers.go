// internal/csvutil/numbers.go
package csvutil

import (
	"math"
	"strconv"
	"strings"
)

var numberReplacer = strings.NewReplacer(
	",", "",
	"₩", "",
	"$", "",
	"원", "",
	" ", "",
	"\u00a0", "",
)

// ParseIntSafe converts a locale-formatted quantity string to a non-negative
// integer. Thousands separators and currency symbols are stripped, the value
// is floored, and anything unparseable or negative comes back as 0.
func ParseIntSafe(s string) int {
	f, ok := parseNumber(s)
	if !ok {
		return 0
	}
	n := int(math.Floor(f))
	if n < 0 {
		return 0
	}
	return n
}

// ParseMoneySafe converts a locale-formatted money string to non-negative
// KRW. Same tolerance as ParseIntSafe but rounded instead of floored.
func ParseMoneySafe(s string) int64 {
	f, ok := parseNumber(s)
	if !ok {
		return 0
	}
	n := int64(math.Round(f))
	if n < 0 {
		return 0
	}
	return n
}

func parseNumber(s string) (float64, bool) {
	cleaned := numberReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
