// Package currency bridges the USDT ledger and the BDT display currency at a fixed rate.
package currency

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Ledger  = "USDT"
	Display = "BDT"
)

// DefaultRate is how many BDT one USDT buys.
var DefaultRate = decimal.NewFromInt(100)

// divisionPrecision bounds ToLedger for rates that do not divide evenly.
const divisionPrecision = 16

// Limits on amount literals accepted from callers, checked before any arithmetic.
const (
	maxAmountLen = 40
	maxExponent  = 12
)

var ErrInvalidAmount = errors.New("invalid amount")

// Rails whose amounts are already denominated in BDT.
var displayNative = map[string]struct{}{
	"bkash": {},
	"nagad": {},
}

type Converter struct {
	rate decimal.Decimal
}

// NewConverter returns a converter for rate; a non-positive rate falls back to DefaultRate.
func NewConverter(rate decimal.Decimal) Converter {
	if !rate.IsPositive() {
		rate = DefaultRate
	}
	return Converter{rate: rate}
}

func (c Converter) Rate() decimal.Decimal {
	if c.rate.IsZero() {
		return DefaultRate
	}
	return c.rate
}

// ToDisplay converts USDT to BDT
func (c Converter) ToDisplay(usdt decimal.Decimal) decimal.Decimal {
	return usdt.Mul(c.Rate())
}

// ToLedger converts BDT to USDT
func (c Converter) ToLedger(bdt decimal.Decimal) decimal.Decimal {
	return bdt.DivRound(c.Rate(), divisionPrecision)
}

// IsDisplayNative reports whether method amounts are already in BDT.
func IsDisplayNative(method string) bool {
	_, ok := displayNative[strings.ToLower(strings.TrimSpace(method))]
	return ok
}

// DisplayAmount renders a stored amount in BDT for the given rail.
func (c Converter) DisplayAmount(method string, amount decimal.Decimal) decimal.Decimal {
	if IsDisplayNative(method) {
		return amount
	}
	return c.ToDisplay(amount)
}

// ParseAmount parses a positive amount literal with at most divisionPrecision decimals
// and an exponent no larger than maxExponent.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxAmountLen {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if exp := d.Exponent(); exp < -divisionPrecision || exp > maxExponent || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
