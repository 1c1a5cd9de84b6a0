package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want Cents
	}{
		{"10.00", 1000},
		{"8.45", 845},
		{"7.5", 750},
		{"12", 1200},
		{"0.00", 0},
		{".99", 99},
		{"-3.25", -325},
		{"9.999", 1000}, // rounds half up beyond cents
		{"9.994", 999},
	}
	for _, tc := range cases {
		got, err := ParseCents(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseCents_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "$5"} {
		_, err := ParseCents(in)
		assert.Error(t, err, in)
	}
}

func TestCents_String(t *testing.T) {
	assert.Equal(t, "10.00", Cents(1000).String())
	assert.Equal(t, "8.45", Cents(845).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-3.25", Cents(-325).String())
}

func TestCents_ApplyMarkup(t *testing.T) {
	assert.Equal(t, Cents(1100), Cents(1000).ApplyMarkup(10))
	// 845 * 1.125 = 950.625 rounds to 951
	assert.Equal(t, Cents(951), Cents(845).ApplyMarkup(12.5))
	assert.Equal(t, Cents(1000), Cents(1000).ApplyMarkup(0))
	assert.Equal(t, Cents(1000), Cents(1000).ApplyMarkup(-5))
}

func TestCents_RoundTrip(t *testing.T) {
	for _, s := range []string{"0.01", "8.45", "100.00", "19.99"} {
		c, err := ParseCents(s)
		require.NoError(t, err)
		assert.Equal(t, s, c.String())
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "10%", FormatPercent(10))
	assert.Equal(t, "12.5%", FormatPercent(12.5))
	assert.Equal(t, "0%", FormatPercent(0))
}
