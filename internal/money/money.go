// Package money converts between the integer-cent representation used in
// storage and the decimal strings used by the inventory feed and export files.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDecimal parses a decimal price string ("12.50") into cents,
// rounding half away from zero.
func ParseDecimal(s string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}

// Format renders cents with two decimals: 1250 -> "12.50".
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
