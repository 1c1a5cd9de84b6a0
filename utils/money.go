package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is a fixed-point dollar amount in hundredths. Carrier rates arrive as
// decimal strings; keeping them in integer cents avoids float drift across
// markup arithmetic. Formatting back to a string happens only at the response
// boundary.
type Cents int64

// ParseCents parses a decimal dollar string ("10.00", "7.5", "12") into Cents.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	// Normalize the fractional part to exactly two digits, rounding half up
	// on anything beyond cents precision.
	var f int64
	switch {
	case frac == "":
	case len(frac) == 1:
		f, err = strconv.ParseInt(frac, 10, 64)
		f *= 10
	case len(frac) == 2:
		f, err = strconv.ParseInt(frac, 10, 64)
	default:
		f, err = strconv.ParseInt(frac[:2], 10, 64)
		if err == nil && frac[2] >= '5' {
			f++
		}
	}
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	total := w*100 + f
	if neg {
		total = -total
	}
	return Cents(total), nil
}

// String formats the amount as a two-decimal dollar string.
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ApplyMarkup returns the amount increased by the given percentage, rounded
// half away from zero to whole cents. A non-positive markup returns the
// amount unchanged.
func (c Cents) ApplyMarkup(percent float64) Cents {
	if percent <= 0 {
		return c
	}
	return Cents(math.Round(float64(c) * (1 + percent/100)))
}

// FormatPercent renders a markup percentage the way operators wrote it:
// "10%" for whole numbers, "12.5%" otherwise.
func FormatPercent(percent float64) string {
	return strconv.FormatFloat(percent, 'f', -1, 64) + "%"
}
