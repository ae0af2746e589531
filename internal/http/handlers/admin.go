package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"earntube/internal/currency"
	"earntube/internal/domain"
	"earntube/internal/logger"
	"earntube/internal/repository"
	"earntube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// AdminWithdrawalHistory handles GET /admin/withdrawals/history
func (h *Handler) AdminWithdrawalHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	res, err := h.History.Page(c.Request.Context(), actor(c), service.HistoryPageQuery{
		Page:         page,
		Limit:        limit,
		ActivityType: c.Query("activityType"),
		DateRange:    c.DefaultQuery("dateRange", "7d"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AdminStats handles GET /admin/stats
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Admin.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RefreshMethods handles POST /admin/withdrawal-methods/refresh after the catalog was edited
func (h *Handler) RefreshMethods(c *gin.Context) {
	h.Methods.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Payment methods reloaded"})
}

type creditRequest struct {
	User   string      `json:"user"` // @username or telegram id
	Amount looseString `json:"amount"`
	Note   string      `json:"note"`
}

// AdminCredit handles POST /admin/credit, a manual USDT credit to a user's balance
func (h *Handler) AdminCredit(c *gin.Context) {
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.User) == "" {
		badRequest(c, "Missing required fields")
		return
	}
	amount, err := currency.ParseAmount(string(req.Amount))
	if err != nil {
		badRequest(c, "Invalid amount")
		return
	}

	ctx := c.Request.Context()
	userID, err := h.Admin.ResolveUserIdentifier(ctx, req.User)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		writeError(c, err)
		return
	}

	a := actor(c)
	balance, err := h.Balances.Credit(ctx, userID, amount, domain.LedgerAdminCredit, map[string]interface{}{
		domain.MetaAdminID: a.UserID,
		"note":             req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, service.ErrInvalidAmount):
			badRequest(c, "Invalid amount")
		default:
			writeError(c, err)
		}
		return
	}

	logger.WithContext(ctx).Info("balance credited", "user_id", userID, "admin_id", a.UserID, "amount", amount.String())
	c.JSON(http.StatusOK, gin.H{
		"userId":     userID,
		"balance":    balance,
		"balanceBDT": h.Settings.Converter.ToDisplay(balance),
	})
}
