package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"earntube/internal/domain"
	"earntube/internal/recipient"
	"earntube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const IdempotencyHeader = "Idempotency-Key"

type createWithdrawalRequest struct {
	Method    string      `json:"method"`
	Amount    looseString `json:"amount"`
	Recipient string      `json:"recipient"`
	Network   string      `json:"network"`
	Type      string      `json:"type"`
}

// createdWithdrawal is the stored withdrawal plus the computed request details.
// Fee shadows the embedded field with the same value.
type createdWithdrawal struct {
	*domain.Withdrawal
	Fee            decimal.Decimal        `json:"fee"`
	AmountAfterFee decimal.Decimal        `json:"amountAfterFee"`
	BDTAmount      decimal.Decimal        `json:"bdtAmount"`
	BDTFee         decimal.Decimal        `json:"bdtFee"`
	PaymentType    string                 `json:"paymentType"`
	FeeBreakdown   map[string]interface{} `json:"feeBreakdown"`
	MethodInfo     service.MethodInfo     `json:"methodInfo"`
}

// CreateWithdrawal handles POST /withdrawals
func (h *Handler) CreateWithdrawal(c *gin.Context) {
	var req createWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}

	res, err := h.Withdrawals.Request(c.Request.Context(), actor(c), snap, service.RequestInput{
		Method:    req.Method,
		Amount:    string(req.Amount),
		Recipient: req.Recipient,
		Network:   req.Network,
		Type:      req.Type,
		RequestID: strings.TrimSpace(c.GetHeader(IdempotencyHeader)),
		ClientIP:  clientIP(c),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"message":  "Withdrawal request submitted successfully",
		"replayed": res.Replayed,
		"withdrawal": createdWithdrawal{
			Withdrawal:     res.Withdrawal,
			Fee:            res.Fee,
			AmountAfterFee: res.AmountAfterFee,
			BDTAmount:      res.BDTAmount,
			BDTFee:         res.BDTFee,
			PaymentType:    res.PaymentType,
			FeeBreakdown:   res.FeeBreakdown,
			MethodInfo:     res.MethodInfo,
		},
	})
}

type decideRequest struct {
	WithdrawalID looseID `json:"withdrawalId"`
	Status       string  `json:"status"`
	Reason       string  `json:"reason"`
}

// DecideWithdrawal handles PUT /withdrawals (admin)
func (h *Handler) DecideWithdrawal(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data")
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}

	res, err := h.Withdrawals.Decide(c.Request.Context(), actor(c), snap, service.DecideInput{
		WithdrawalID: int64(req.WithdrawalID),
		Status:       strings.ToLower(strings.TrimSpace(req.Status)),
		Reason:       strings.TrimSpace(req.Reason),
		ClientIP:     clientIP(c),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message, "withdrawal": res.Withdrawal})
}

type cancelRequest struct {
	ID looseID `json:"id"`
}

// CancelWithdrawal handles DELETE /withdrawals
func (h *Handler) CancelWithdrawal(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Missing withdrawal ID")
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}

	res, err := h.Withdrawals.Cancel(c.Request.Context(), actor(c), snap, service.CancelInput{
		WithdrawalID: int64(req.ID),
		ClientIP:     clientIP(c),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           "Withdrawal cancelled successfully",
		"refundedAmount":    res.RefundedAmount,
		"refundedAmountBDT": res.RefundedAmountBDT,
	})
}

// ListWithdrawals handles GET /withdrawals?status=
func (h *Handler) ListWithdrawals(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	views, err := h.Withdrawals.List(c.Request.Context(), actor(c), snap, strings.ToLower(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": views})
}

type estimateRequest struct {
	Method string      `json:"method"`
	Amount looseString `json:"amount"`
}

// EstimateWithdrawal handles POST /withdrawals/estimate. Nothing is stored.
func (h *Handler) EstimateWithdrawal(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		method = snap.Settings.MobileBankingMethodID
	}

	est, err := h.Withdrawals.Estimate(snap, method, string(req.Amount))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

type validateRecipientRequest struct {
	Recipient string `json:"recipient"`
	Network   string `json:"network"`
}

// ValidateRecipient handles POST /withdrawals/validate-recipient.
// Without a network the recipient must be a Bangladeshi mobile number.
func (h *Handler) ValidateRecipient(c *gin.Context) {
	var req validateRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Recipient) == "" {
		badRequest(c, "Missing recipient")
		return
	}

	if network := strings.TrimSpace(req.Network); network != "" {
		if err := recipient.ValidateCryptoAddress(network, req.Recipient); err != nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true, "normalized": strings.TrimSpace(req.Recipient)})
		return
	}

	normalized, ok := recipient.Normalize(req.Recipient)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Invalid phone number format"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "normalized": normalized})
}

// WithdrawalHistory handles GET /withdrawals/:id/history
func (h *Handler) WithdrawalHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid withdrawal ID")
		return
	}
	entries, err := h.Withdrawals.History(c.Request.Context(), actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
