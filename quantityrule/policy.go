package quantityrule

import (
	"math"
)

// DefaultEpsilon is the tolerance used when a Policy leaves Epsilon at zero.
const DefaultEpsilon = 1e-6

// Policy decides when a resolved minimum quantity replaces the line's quantity.
//
// ForceAlways has no default on purpose: callers state it, usually from configuration.
type Policy struct {
	// ForceAlways overwrites the quantity whenever a valid rule value was found.
	// Otherwise only quantities at (or below) zero or at one are overwritten.
	ForceAlways bool

	// Epsilon is the tolerance for comparing quantities. Zero selects DefaultEpsilon.
	Epsilon float64

	// FallbackFormat is tried when a textual rule value does not parse with the decimal point.
	// The zero value selects DefaultFallbackNumberFormat.
	FallbackFormat NumberFormat
}

func (p Policy) normalized() (Policy, error) {
	if math.IsNaN(p.Epsilon) || math.IsInf(p.Epsilon, 0) || p.Epsilon < 0 {
		return Policy{}, ErrInvalidEpsilon
	}

	if p.Epsilon == 0 {
		p.Epsilon = DefaultEpsilon
	}

	if p.FallbackFormat.IsZero() {
		p.FallbackFormat = DefaultFallbackNumberFormat
	}

	if _, err := NewNumberFormat(p.FallbackFormat.DecimalSeparator, p.FallbackFormat.GroupSeparator); err != nil {
		return Policy{}, err
	}

	return p, nil
}

// ShouldOverwrite reports whether a line currently holding quantity gets the rule value.
func (p Policy) ShouldOverwrite(quantity float64) bool {
	epsilon := p.Epsilon
	if epsilon == 0 {
		epsilon = DefaultEpsilon
	}

	return p.ForceAlways ||
		quantity <= 0+epsilon ||
		math.Abs(quantity-1) < epsilon
}
