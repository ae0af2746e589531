// Package fee computes withdrawal fees from a payment method's fee policy.
package fee

import (
	"strings"

	"earntube/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Scale is the number of decimal places stored for amounts and fees.
const Scale = 16

// MethodLookup resolves catalog entries by lower-cased id.
type MethodLookup interface {
	Method(id string) (domain.PaymentMethod, bool)
}

type Breakdown struct {
	BaseFee            decimal.Decimal `json:"baseFee"`
	NetworkMultiplier  decimal.Decimal `json:"networkMultiplier"`
	NetworkDescription string          `json:"networkDescription"`
	PercentageFee      decimal.Decimal `json:"percentageFee"`
	FixedFee           decimal.Decimal `json:"fixedFee"`
	MethodName         string          `json:"methodName,omitempty"`
	OriginalFeeString  string          `json:"originalFeeString,omitempty"`
	MethodNotFound     bool            `json:"methodNotFound,omitempty"`
}

// Map flattens the breakdown for JSON metadata columns.
func (b Breakdown) Map() map[string]interface{} {
	m := map[string]interface{}{
		"baseFee":            b.BaseFee.String(),
		"networkMultiplier":  b.NetworkMultiplier.String(),
		"networkDescription": b.NetworkDescription,
		"percentageFee":      b.PercentageFee.String(),
		"fixedFee":           b.FixedFee.String(),
	}
	if b.MethodName != "" {
		m["methodName"] = b.MethodName
	}
	if b.OriginalFeeString != "" {
		m["originalFeeString"] = b.OriginalFeeString
	}
	if b.MethodNotFound {
		m["methodNotFound"] = true
	}
	return m
}

type Result struct {
	Policy         Policy          `json:"-"`
	Fee            decimal.Decimal `json:"fee"`
	AmountAfterFee decimal.Decimal `json:"amountAfterFee"`
	Breakdown      Breakdown       `json:"feeBreakdown"`
}

// Apply computes amount*percentage/100 + fixed, rounded to Scale places.
func (p Policy) Apply(amount decimal.Decimal) (total, percentagePart decimal.Decimal) {
	percentagePart = amount.Mul(p.percentage()).Div(hundred).Round(Scale)
	return percentagePart.Add(p.fixed()).Round(Scale), percentagePart
}

// Calculate never fails: an unknown method is charged DefaultPolicy.
func Calculate(amount decimal.Decimal, methodKey string, lookup MethodLookup) Result {
	var (
		m     domain.PaymentMethod
		found bool
	)
	if lookup != nil {
		m, found = lookup.Method(strings.ToLower(strings.TrimSpace(methodKey)))
	}

	if !found {
		total, _ := DefaultPolicy.Apply(amount)
		return Result{
			Policy:         DefaultPolicy,
			Fee:            total,
			AmountAfterFee: amount.Sub(total),
			Breakdown: Breakdown{
				BaseFee:            total,
				NetworkMultiplier:  decimal.NewFromInt(1),
				NetworkDescription: "Default fee",
				PercentageFee:      DefaultPolicy.percentage(),
				FixedFee:           DefaultPolicy.fixed(),
				MethodNotFound:     true,
			},
		}
	}

	p := PolicyOf(m)
	total, _ := p.Apply(amount)

	desc := "Mobile Banking fee"
	if m.Category == domain.CategoryCrypto {
		desc = "Crypto fee"
	}
	original := m.Fee
	if original == "" {
		original = p.String()
	}

	return Result{
		Policy:         p,
		Fee:            total,
		AmountAfterFee: amount.Sub(total),
		Breakdown: Breakdown{
			BaseFee:            total,
			NetworkMultiplier:  decimal.NewFromInt(1),
			NetworkDescription: desc,
			PercentageFee:      p.percentage(),
			FixedFee:           p.fixed(),
			MethodName:         m.Name,
			OriginalFeeString:  original,
		},
	}
}
