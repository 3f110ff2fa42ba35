// Package core holds the receipt domain model and numeric parsing helpers.
//
// Amounts on receipts arrive as free text from a vision model: they may carry
// currency symbols ("R$ 10.00"), thousands separators, or stray OCR noise.
// ParseAmount is the single total function that turns such text into a
// non-negative float, and it never panics.
package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount means a value could not be read as a non-negative amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string to a non-negative float64, stripping
// any currency decoration before parsing. The decimal separator is always a
// dot (extraction contract); commas are treated as noise and removed.
//
// Examples:
//
//	ParseAmount("10.50")     -> 10.5, nil
//	ParseAmount("R$ 10.50")  -> 10.5, nil
//	ParseAmount("$3")        -> 3, nil
//	ParseAmount("abc")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	// Keep only digits and dots; everything else is decoration or noise.
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "." {
		return 0, ErrInvalidAmount
	}
	if strings.Count(cleaned, ".") > 1 {
		return 0, ErrInvalidAmount
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
