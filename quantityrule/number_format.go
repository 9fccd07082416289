package quantityrule

import (
	"errors"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// NumberFormat describes how a locale writes decimal numbers.
// A zero GroupSeparator means digit grouping is not accepted.
type NumberFormat struct {
	DecimalSeparator rune
	GroupSeparator   rune
}

// InvariantNumberFormat is the fixed decimal-point convention that is always tried first.
var InvariantNumberFormat = NumberFormat{DecimalSeparator: '.', GroupSeparator: ','}

// DefaultFallbackNumberFormat is used when a Policy does not name a fallback format.
var DefaultFallbackNumberFormat = NumberFormat{DecimalSeparator: ',', GroupSeparator: '.'}

// float64 overflows far below an exponent of 1000.
const maxExponentDigits = 3

var (
	commaDecimalPointGroup = []string{
		"pt", "es", "de", "it", "nl", "da", "id", "tr", "el", "ro", "hr", "sl", "sr", "ca", "gl", "eu",
	}
	commaDecimalSpaceGroup = []string{
		"fr", "ru", "pl", "cs", "sk", "sv", "fi", "nb", "nn", "no", "uk", "hu", "bg", "lt", "lv", "et",
	}
	pointDecimalSpanishRegions = []string{"MX", "US", "GT", "HN", "NI", "PA", "PR", "DO", "SV"}
	apostropheGroupSwissBases  = []string{"de", "it", "fr"}
)

// NewNumberFormat validates and returns a NumberFormat.
func NewNumberFormat(decimalSeparator, groupSeparator rune) (NumberFormat, error) {
	if decimalSeparator == 0 || decimalSeparator == groupSeparator {
		return NumberFormat{}, ErrInvalidNumberFormat
	}

	return NumberFormat{DecimalSeparator: decimalSeparator, GroupSeparator: groupSeparator}, nil
}

// NumberFormatForLocale maps a BCP 47 language tag like "pt-PT" to the way that locale writes
// decimal numbers. Languages without a known convention use the decimal point.
func NumberFormatForLocale(locale string) (NumberFormat, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return NumberFormat{}, errors.Join(ErrUnknownLocale, err)
	}

	base, _ := tag.Base()
	region, _ := tag.Region()

	switch {
	case region.String() == "CH" && slices.Contains(apostropheGroupSwissBases, base.String()):
		return NumberFormat{DecimalSeparator: '.', GroupSeparator: '’'}, nil

	case base.String() == "es" && slices.Contains(pointDecimalSpanishRegions, region.String()):
		return InvariantNumberFormat, nil

	case slices.Contains(commaDecimalPointGroup, base.String()):
		return NumberFormat{DecimalSeparator: ',', GroupSeparator: '.'}, nil

	case slices.Contains(commaDecimalSpaceGroup, base.String()):
		return NumberFormat{DecimalSeparator: ',', GroupSeparator: ' '}, nil

	default:
		return InvariantNumberFormat, nil
	}
}

// IsZero reports whether f is the zero NumberFormat.
func (f NumberFormat) IsZero() bool {
	return f == NumberFormat{}
}

// Parse reads text written in this format: optional sign, digits with optional grouping in
// well-formed groups of three, optional decimal separator and fraction, optional exponent.
// Surrounding whitespace is ignored. Non-finite results are rejected.
func (f NumberFormat) Parse(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" || f.DecimalSeparator == 0 {
		return 0, false
	}

	negative := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		negative = true
		s = s[1:]
	}

	mantissa, exponent := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exponent = s[:i], s[i+1:]
		if !isSignedDigits(exponent) || len(strings.TrimLeft(strings.TrimLeft(exponent, "+-"), "0")) > maxExponentDigits {
			return 0, false
		}
	}

	integer, fraction, _ := strings.Cut(mantissa, string(f.DecimalSeparator))

	integerDigits, ok := f.ungroup(integer)
	if !ok || !isDigits(fraction) {
		return 0, false
	}

	if integerDigits == "" && fraction == "" {
		return 0, false
	}

	var canonical strings.Builder
	if negative {
		canonical.WriteByte('-')
	}

	if integerDigits == "" {
		integerDigits = "0"
	}
	canonical.WriteString(integerDigits)

	if fraction != "" {
		canonical.WriteByte('.')
		canonical.WriteString(fraction)
	}

	if exponent != "" {
		canonical.WriteByte('e')
		canonical.WriteString(strings.TrimPrefix(exponent, "+"))
	}

	d, err := decimal.NewFromString(canonical.String())
	if err != nil {
		return 0, false
	}

	value, _ := d.Float64()
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}

	return value, true
}

// ungroup removes group separators from the integer part, accepting only groups of three
// digits after a leading group of one to three digits.
func (f NumberFormat) ungroup(integer string) (string, bool) {
	if !strings.ContainsFunc(integer, f.isGroupSeparator) {
		return integer, isDigits(integer)
	}

	groups := make([]string, 0, 4)
	start := 0
	for i, r := range integer {
		if f.isGroupSeparator(r) {
			groups = append(groups, integer[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	groups = append(groups, integer[start:])

	for i, group := range groups {
		if !isDigits(group) || group == "" {
			return "", false
		}

		if i == 0 && len(group) > 3 {
			return "", false
		}

		if i > 0 && len(group) != 3 {
			return "", false
		}
	}

	return strings.Join(groups, ""), true
}

func (f NumberFormat) isGroupSeparator(r rune) bool {
	if f.GroupSeparator == 0 {
		return false
	}

	if unicode.IsSpace(f.GroupSeparator) {
		return unicode.IsSpace(r)
	}

	if isApostrophe(f.GroupSeparator) {
		return isApostrophe(r)
	}

	return r == f.GroupSeparator
}

// isApostrophe matches both the typographic and the ASCII apostrophe used for Swiss grouping.
func isApostrophe(r rune) bool {
	return r == '’' || r == '\''
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func isSignedDigits(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}

	return s != "" && isDigits(s)
}
