// Package money represents the non-negative, fixed-scale-2 decimal amounts
// any monetary value in the system needs.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a non-negative monetary amount in minor units (1/100th of the
// wallet's currency). Using an integer minor-unit type rather than a
// floating point or big.Float avoids rounding drift across the additions
// and comparisons the rules engine and kill switch perform constantly.
type Cents int64

// Zero is the additive identity.
const Zero Cents = 0

// Positive reports whether c is strictly greater than zero, the
// admission precondition for any candidate transaction amount.
func (c Cents) Positive() bool { return c > 0 }

// Add returns c + other.
func (c Cents) Add(other Cents) Cents { return c + other }

// Sub returns c - other. Callers that must not go negative should check
// CanSubtract first; Sub itself performs no clamping.
func (c Cents) Sub(other Cents) Cents { return c - other }

// CanSubtract reports whether c-other would remain non-negative.
func (c Cents) CanSubtract(other Cents) bool { return c >= other }

// MulFloat scales c by a ratio, rounding to the nearest cent.
func (c Cents) MulFloat(ratio float64) Cents {
	return Cents(int64(float64(c)*ratio + 0.5))
}

// String renders c as "<dollars>.<cents>", e.g. Cents(12345) -> "123.45".
func (c Cents) String() string {
	neg := c < 0
	v := int64(c)
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d.%02d", v/100, v%100)
	if neg {
		return "-" + s
	}
	return s
}

// Parse converts a "<dollars>.<cents>" decimal string into Cents.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 63)
	if err != nil {
		return 0, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	var frac int64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > 2 {
			fracStr = fracStr[:2]
		}
		for len(fracStr) < 2 {
			fracStr += "0"
		}
		frac, err = strconv.ParseInt(fracStr, 10, 63)
		if err != nil {
			return 0, fmt.Errorf("money: invalid fractional amount %q: %w", s, err)
		}
	}
	v := whole*100 + frac
	if neg {
		v = -v
	}
	return Cents(v), nil
}
