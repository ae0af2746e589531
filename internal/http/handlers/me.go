package handlers

import (
	"errors"
	"net/http"

	"earntube/internal/repository"
	"earntube/internal/service"

	"github.com/gin-gonic/gin"
)

// Me returns the caller's profile with the balance in USDT and BDT
func (h *Handler) Me(c *gin.Context) {
	a := actor(c)
	if a == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx := c.Request.Context()
	user, err := repository.NewUserRepository(h.DB).GetByID(ctx, a.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            user.ID,
		"telegramId":    user.TelegramID,
		"username":      user.Username,
		"fullName":      user.FullName,
		"role":          user.Role,
		"balance":       user.Balance,
		"balanceBDT":    h.Settings.Converter.ToDisplay(user.Balance),
		"totalEarnings": user.TotalEarnings,
		"createdAt":     user.CreatedAt,
	})
}

// MyLedger returns the caller's latest balance movements
func (h *Handler) MyLedger(c *gin.Context) {
	a := actor(c)
	if a == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	entries, err := h.Balances.GetLedger(c.Request.Context(), a.UserID, 100)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// MyBalance returns the caller's balance in both currencies
func (h *Handler) MyBalance(c *gin.Context) {
	a := actor(c)
	if a == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	b, err := h.Balances.GetBalance(c.Request.Context(), a.UserID, h.Settings.Converter)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
