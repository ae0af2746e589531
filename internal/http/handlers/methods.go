package handlers

import (
	"net/http"
	"time"

	"earntube/internal/domain"
	"earntube/internal/fee"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// catalog defaults for rows saved without the optional columns
var (
	defaultMethodFee      = "0.1%"
	defaultEstimatedTime  = "30-60 minutes"
	defaultMinAmount      = decimal.NewFromInt(50)
	defaultMaxAmount      = decimal.NewFromInt(100000)
	defaultMethodCurrency = "USD"
)

type methodView struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Image         string              `json:"image"`
	Status        domain.MethodStatus `json:"status"`
	Message       string              `json:"message"`
	Fee           string              `json:"fee"`
	EstimatedTime string              `json:"estimatedTime"`
	MinAmount     decimal.Decimal     `json:"minAmount"`
	MaxAmount     decimal.Decimal     `json:"maxAmount"`
	Currency      string              `json:"currency"`
	Category      string              `json:"category"`
	CreatedAt     time.Time           `json:"createdAt"`
}

func viewOf(m domain.PaymentMethod) methodView {
	v := methodView{
		ID:            m.ID,
		Name:          m.Name,
		Image:         m.Image,
		Status:        m.Status,
		Message:       m.Message,
		Fee:           m.Fee,
		EstimatedTime: m.EstimatedTime,
		MinAmount:     m.MinAmount,
		MaxAmount:     m.MaxAmount,
		Currency:      m.Currency,
		Category:      m.Category,
		CreatedAt:     m.CreatedAt,
	}
	if m.FeeKind != "" {
		v.Fee = fee.PolicyOf(m).String()
	}
	if v.Fee == "" {
		v.Fee = defaultMethodFee
	}
	if v.EstimatedTime == "" {
		v.EstimatedTime = defaultEstimatedTime
	}
	if !v.MinAmount.IsPositive() {
		v.MinAmount = defaultMinAmount
	}
	if !v.MaxAmount.IsPositive() {
		v.MaxAmount = defaultMaxAmount
	}
	if v.Currency == "" {
		v.Currency = defaultMethodCurrency
	}
	return v
}

// ListMethods handles GET /withdrawal-methods
func (h *Handler) ListMethods(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	methods := snap.Catalog.Methods()
	out := make([]methodView, 0, len(methods))
	for _, m := range methods {
		out = append(out, viewOf(m))
	}
	c.JSON(http.StatusOK, gin.H{"methods": out})
}
