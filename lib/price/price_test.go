package price

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in       string
		expected float64
	}{
		{in: "12,99 €", expected: 12.99},
		{in: "1.234,56 €", expected: 1234.56},
		{in: "1,234.56", expected: 1234.56},
		{in: "$5", expected: 5},
		{in: "£ 7.5", expected: 7.5},
		{in: "1 299,00 €", expected: 1299},
		{in: "Prix : 19,90€ TTC", expected: 19.90},
		{in: "42", expected: 42},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		require.InDelta(t, c.expected, got, 1e-9, c.in)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "gratuit", "€"} {
		_, err := Parse(in)
		require.True(t, errors.Is(err, ErrNoPrice), in)
	}
}

func TestFromParts(t *testing.T) {
	got, err := FromParts("24", "99")
	require.NoError(t, err)
	require.InDelta(t, 24.99, got, 1e-9)

	got, err = FromParts("24,", ",99")
	require.NoError(t, err)
	require.InDelta(t, 24.99, got, 1e-9)

	got, err = FromParts("1 234, €", "50")
	require.NoError(t, err)
	require.InDelta(t, 1234.5, got, 1e-9)

	got, err = FromParts("15", "")
	require.NoError(t, err)
	require.InDelta(t, 15.0, got, 1e-9)
}

func TestFormat(t *testing.T) {
	cases := []struct {
		format   Format
		in       float64
		expected string
	}{
		{format: French, in: 1234.56, expected: "1 234,56 €"},
		{format: French, in: 0.5, expected: "0,50 €"},
		{format: French, in: 1234567.891, expected: "1 234 567,89 €"},
		{format: French, in: -12, expected: "-12,00 €"},
		{format: Format{Currency: "$", DecimalSeparator: ".", ThousandsSeparator: ","}, in: 1000, expected: "1,000.00 $"},
		{format: Format{DecimalSeparator: ","}, in: 999.999, expected: "1000,00"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, c.format.Format(c.in))
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 9.99, 1234.56, 98765.43} {
		got, err := Parse(French.Format(v))
		require.NoError(t, err)
		require.InDelta(t, v, got, 1e-9)
	}
}

func TestEqualAndRound(t *testing.T) {
	require.True(t, Equal(10, 10.01))
	require.False(t, Equal(10, 10.02))
	require.Equal(t, 3.33, Round(10.0/3))
}
