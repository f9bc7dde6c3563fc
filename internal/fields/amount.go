package fields

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var reNumericPrefix = regexp.MustCompile(`^\d+(?:\.\d+)?`)

// parseAmount parses a numeric token from OCR text. Only the first comma is
// rewritten to a decimal dot and parsing stops at the first rune that no
// longer fits a plain decimal, so "12.50€" parses as 12.5 and "1,234.56"
// parses as 1.234. Thousands separators are deliberately not stripped:
// downstream consumers already compensate for that shape.
func parseAmount(raw string) (float64, bool) {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	m := reNumericPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
