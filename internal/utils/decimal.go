package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrEmptyNumber = errors.New("empty number")

var rxKeepNums = regexp.MustCompile(`[^\d.\-]`)

// ParseDecimal reads a rate cell: "1,234.50", "₹ 99", "Rs. 12.5", "(15.00)", NBSP separated.
// Commas are thousands separators.
func ParseDecimal(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(" ", "", "\u00A0", "", "\u202F", "", "\t", "", ",", "", "₹", "").Replace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "rs"), ".")
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrEmptyNumber, raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", raw, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
