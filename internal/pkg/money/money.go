// Package money formats and parses integer minor-unit amounts. Vendor
// amounts stay integers end to end; division by 100 happens only at the
// display boundary.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid money amount")

// FormatCents renders minor units as a dollar string: 2150 -> "$21.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// ParseCents inverts FormatCents: "$21.50" -> 2150.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")

	whole, frac, ok := strings.Cut(s, ".")
	if !ok || len(frac) != 2 || whole == "" {
		return 0, ErrInvalidAmount
	}

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	total := dollars*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

// ParseVendorAmount converts a vendor-reported string amount ("8100") into
// minor units. The vendor reports credits as negative; callers that display
// a credit line take the absolute value themselves.
func ParseVendorAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}
