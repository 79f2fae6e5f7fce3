package amount

import (
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"strings"
)

// ErrInvalidAmount returned by Parse when text cannot be read as an amount
var ErrInvalidAmount = errors.New("invalid amount, e.g. 10.000,00")

// Parse is the strict reading of a submitted amount. Unlike ToCanonical it
// keeps a leading '-', treats a lone ',' like a lone '.' (decimal only when
// followed by 1 or 2 digits) and rejects text without a number. The result is
// rounded half away from zero to Places digits.
func Parse(text string) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		}
		return -1
	}, text)

	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = resolveSingle(s, ",")
	case hasDot:
		s = resolveSingle(s, ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", text, ErrInvalidAmount)
	}
	return d.Round(Places), nil
}

// MustParse is Parse for literals known to be valid
func MustParse(text string) decimal.Decimal {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

// resolveSingle handles text holding only one kind of separator
func resolveSingle(s, sep string) string {
	tail := s[strings.LastIndex(s, sep)+1:]
	if n := len(tail); n == 1 || n == 2 {
		if sep == "," {
			return strings.ReplaceAll(s, ",", ".")
		}
		return s
	}
	return strings.ReplaceAll(s, sep, "")
}
