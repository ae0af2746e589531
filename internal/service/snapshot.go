package service

import (
	"strings"

	"earntube/internal/config"
	"earntube/internal/currency"
	"earntube/internal/domain"
)

// Settings are the withdrawal knobs an admin controls.
type Settings struct {
	CryptoEnabled         bool
	MobileBankingMethodID string
	RefundFeeOnReject     bool
	Converter             currency.Converter
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		CryptoEnabled:         cfg.CryptoEnabled,
		MobileBankingMethodID: cfg.MobileBankingMethodID,
		RefundFeeOnReject:     cfg.RefundFeeOnReject,
		Converter:             currency.NewConverter(cfg.USDTToBDTRate),
	}
}

// Catalog is an immutable view of the payment methods, keyed by lower-cased id.
type Catalog struct {
	byID    map[string]domain.PaymentMethod
	ordered []domain.PaymentMethod
}

func NewCatalog(methods []domain.PaymentMethod) *Catalog {
	c := &Catalog{
		byID:    make(map[string]domain.PaymentMethod, len(methods)),
		ordered: make([]domain.PaymentMethod, 0, len(methods)),
	}
	for _, m := range methods {
		c.byID[strings.ToLower(m.ID)] = m
		c.ordered = append(c.ordered, m)
	}
	return c
}

// Method implements fee.MethodLookup.
func (c *Catalog) Method(id string) (domain.PaymentMethod, bool) {
	if c == nil {
		return domain.PaymentMethod{}, false
	}
	m, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	return m, ok
}

func (c *Catalog) Methods() []domain.PaymentMethod {
	if c == nil {
		return nil
	}
	return c.ordered
}

// Snapshot is what a single request sees of settings and catalog.
type Snapshot struct {
	Settings Settings
	Catalog  *Catalog
}

// Actor is the authenticated caller. A nil *Actor is anonymous.
type Actor struct {
	UserID int64
	Role   domain.Role
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == domain.RoleAdmin
}
