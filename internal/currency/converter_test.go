package currency

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConverterDefaults(t *testing.T) {
	c := NewConverter(decimal.Zero)
	assert.True(t, c.Rate().Equal(DefaultRate))

	var zero Converter
	assert.True(t, zero.ToDisplay(d("1")).Equal(d("100")))
}

func TestToDisplayToLedger(t *testing.T) {
	c := NewConverter(DefaultRate)

	assert.True(t, c.ToDisplay(d("5")).Equal(d("500")))
	assert.True(t, c.ToLedger(d("500")).Equal(d("5")))
	assert.True(t, c.ToLedger(d("55")).Equal(d("0.55")))
}

func TestRoundTrip(t *testing.T) {
	c := NewConverter(DefaultRate)
	for _, s := range []string{"0", "1", "50", "123.45", "100000", "0.01", "99999.99"} {
		x := d(s)
		assert.Truef(t, c.ToDisplay(c.ToLedger(x)).Equal(x), "round trip of %s", s)
	}
}

func TestRoundTripUnevenRate(t *testing.T) {
	c := NewConverter(d("117.5"))
	x := d("500")
	got := c.ToDisplay(c.ToLedger(x))
	assert.True(t, got.Sub(x).Abs().LessThan(d("0.000000001")), "got %s", got)
}

func TestDisplayAmount(t *testing.T) {
	c := NewConverter(DefaultRate)

	cases := []struct {
		method string
		amount string
		want   string
	}{
		{"bkash", "500", "500"},
		{"BKash", "500", "500"},
		{" Nagad ", "42.5", "42.5"},
		{"rocket", "5", "500"},
		{"wm_mobile banking_1755632583285", "5", "500"},
	}
	for _, tc := range cases {
		got := c.DisplayAmount(tc.method, d(tc.amount))
		assert.Truef(t, got.Equal(d(tc.want)), "%s: got %s want %s", tc.method, got, tc.want)
	}
}

func TestIsDisplayNative(t *testing.T) {
	assert.True(t, IsDisplayNative("NAGAD"))
	assert.False(t, IsDisplayNative("upay"))
	assert.False(t, IsDisplayNative(""))
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"500", "500", true},
		{" 55.55 ", "55.55", true},
		{"1e3", "1000", true},
		{"0.0000000000000001", "0.0000000000000001", true},
		{"", "", false},
		{"abc", "", false},
		{"0", "", false},
		{"-5", "", false},
		{"1e13", "", false},
		{"1e99999999", "", false},
		{"1e-99999999", "", false},
		{"0.00000000000000001", "", false},
		{"1" + strings.Repeat("0", 40), "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, tc.in)
			continue
		}
		if assert.NoError(t, err, tc.in) {
			assert.True(t, got.Equal(d(tc.want)), "%q parsed as %s", tc.in, got)
		}
	}
}
