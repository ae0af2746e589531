package fee

import (
	"strings"

	"earntube/internal/domain"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindPercentage Kind = iota
	KindFixed
)

func (k Kind) String() string {
	if k == KindFixed {
		return domain.FeeKindFixed
	}
	return domain.FeeKindPercentage
}

// Policy is either a percentage rate or a fixed ledger amount, never both.
type Policy struct {
	Kind  Kind
	Value decimal.Decimal
}

func Percentage(rate decimal.Decimal) Policy {
	return Policy{Kind: KindPercentage, Value: rate}
}

func Fixed(amount decimal.Decimal) Policy {
	return Policy{Kind: KindFixed, Value: amount}
}

// DefaultPolicy applies when the requested method is not in the catalog.
var DefaultPolicy = Percentage(decimal.NewFromInt(10))

func (p Policy) percentage() decimal.Decimal {
	if p.Kind == KindPercentage {
		return p.Value
	}
	return decimal.Zero
}

func (p Policy) fixed() decimal.Decimal {
	if p.Kind == KindFixed {
		return p.Value
	}
	return decimal.Zero
}

// String renders the policy the way the admin dashboard shows it: "10%" or "1 USDT".
func (p Policy) String() string {
	if p.Kind == KindFixed {
		return p.Value.String() + " USDT"
	}
	return p.Value.String() + "%"
}

// ParsePolicy reads a legacy fee display string. Anything unparseable yields a zero fee
// of the detected kind.
func ParsePolicy(s string) Policy {
	s = strings.TrimSpace(s)

	if strings.Contains(s, "%") {
		v, err := decimal.NewFromString(strings.TrimSpace(strings.Replace(s, "%", "", 1)))
		if err != nil {
			v = leadingNumber(strings.Replace(s, "%", "", 1))
		}
		return Percentage(v)
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return Fixed(leadingNumber(b.String()))
}

// leadingNumber parses the longest numeric prefix of s, 0 if there is none.
func leadingNumber(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	end := 0
	dot := false
	for end < len(s) {
		c := s[end]
		if c == '.' && !dot {
			dot = true
		} else if c < '0' || c > '9' {
			if !(end == 0 && (c == '-' || c == '+')) {
				break
			}
		}
		end++
	}
	v, err := decimal.NewFromString(strings.TrimSuffix(s[:end], "."))
	if err != nil {
		return decimal.Zero
	}
	return v
}

// PolicyOf resolves the fee policy of a catalog entry, preferring the structured columns.
func PolicyOf(m domain.PaymentMethod) Policy {
	switch m.FeeKind {
	case domain.FeeKindPercentage:
		return Percentage(m.FeeValue)
	case domain.FeeKindFixed:
		return Fixed(m.FeeValue)
	}
	return ParsePolicy(m.Fee)
}
