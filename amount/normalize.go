// Package amount converts free-form amounts typed by users into a canonical
// machine decimal ("1234.50") and back into es-AR display text ("1.234,50").
package amount

import (
	"errors"
	"github.com/shopspring/decimal"
	"regexp"
	"strings"
)

const (
	// Places fraction digits of every canonical amount
	Places = 2

	// MaxPlaces most fraction digits FormatPlaces will render
	MaxPlaces = 6
)

// ErrInvalidPlaces fraction digits outside 0..MaxPlaces
var ErrInvalidPlaces = errors.New("places must be between 0 and 6")

// plainDecimal values ToDisplay formats; exponents and the like are passed through
var plainDecimal = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ToCanonical normalizes typed text into a canonical amount matching \d+\.\d{2}.
// Blank input yields "" (no amount). Anything else always yields a canonical
// value; text without usable digits degrades to "0.00".
//
// Separator resolution:
//   - both ',' and '.': whichever appears last is the decimal point
//   - only ',': decimal point
//   - only '.': decimal point when followed by 1 or 2 digits, grouping otherwise
//
// "12.34" typed as a grouped integer cannot be told apart from the decimal
// 12.34 and is read as a decimal.
func ToCanonical(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, text)

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')

	var intPart, fracPart string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		sep := lastDot
		if lastComma > lastDot {
			sep = lastComma
		}
		intPart, fracPart = cleaned[:sep], cleaned[sep+1:]
	case lastComma >= 0:
		intPart, fracPart = cleaned[:lastComma], cleaned[lastComma+1:]
	case lastDot >= 0:
		if n := len(cleaned) - lastDot - 1; n == 1 || n == 2 {
			intPart, fracPart = cleaned[:lastDot], cleaned[lastDot+1:]
		} else {
			intPart = cleaned
		}
	default:
		intPart = cleaned
	}

	return integer(intPart) + "." + fraction(digits(fracPart))
}

// ToDisplay formats a canonical amount the es-AR way: '.' groups thousands,
// ',' separates two fraction digits. Anything but a plain decimal such as
// "-1234.5" is returned unchanged, exponent notation included.
func ToDisplay(canonical string) string {
	if !plainDecimal.MatchString(canonical) {
		return canonical
	}
	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return canonical
	}
	return FormatPlaces(d, Places)
}

// FormatPlaces formats d with the given number of fraction digits using
// es-AR separators. places is clamped to 0..MaxPlaces.
func FormatPlaces(d decimal.Decimal, places int) string {
	places = max(0, min(places, MaxPlaces))
	fixed := d.StringFixed(int32(places))

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(group(intPart))
	if places > 0 {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}

// digits keeps the ASCII digits of s
func digits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// integer keeps the digits of s without leading zeros, "0" when none are left
func integer(s string) string {
	out := strings.TrimLeft(digits(s), "0")
	if out == "" {
		return "0"
	}
	return out
}

// fraction pads or truncates to exactly Places digits
func fraction(s string) string {
	if len(s) >= Places {
		return s[:Places]
	}
	return s + strings.Repeat("0", Places-len(s))
}

// group inserts '.' every three digits from the right
func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
