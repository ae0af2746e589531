package http

import (
	"time"

	"earntube/internal/config"
	"earntube/internal/http/handlers"
	"earntube/internal/http/middleware"
	"earntube/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Deps is everything the routes need from main
type Deps struct {
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Config   *config.Config
	Services handlers.Services
	Hub      *ws.Hub
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.DB, d.Services)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Redis, d.Services.Methods, d.Services.Settings.MobileBankingMethodID, d.Config.AppVersion)

	r.Use(middleware.RequestLogger(), middleware.Metrics())

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	apiLimit := apiRateLimit(d.Config.APIRateLimit, d.Config.APIRateWindow)
	withdrawLimit := withdrawRateLimit(d.Config.WithdrawRateLimit, d.Config.WithdrawRateWindow)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(apiLimit)
	registerAPIRoutes(v1, h, withdrawLimit)

	// Legacy /api routes
	api := r.Group("/api")
	api.Use(apiLimit)
	api.GET("/health", healthHandler.Health)
	registerAPIRoutes(api, h, withdrawLimit)

	// Live withdrawal events
	r.GET("/ws", ws.HandleWS(d.Hub, d.Config.AllowedOrigin))
}

// apiRateLimit limits by IP through Redis, or per instance when Redis is off.
func apiRateLimit(limit int, window time.Duration) gin.HandlerFunc {
	if middleware.RedisEnabled() {
		return middleware.RedisRateLimit(limit, window)
	}
	return middleware.SimpleRateLimit(limit, window)
}

// withdrawRateLimit limits withdrawal mutations per user. Must follow JWT.
func withdrawRateLimit(limit int, window time.Duration) gin.HandlerFunc {
	if middleware.RedisEnabled() {
		return middleware.UserRateLimit("withdraw", limit, window)
	}
	return middleware.SimpleRateLimit(limit, window)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, withdrawLimit gin.HandlerFunc) {
	auth := middleware.JWT()

	// Catalog
	api.GET("/withdrawal-methods", h.ListMethods)

	// User
	api.GET("/me", auth, h.Me)
	api.GET("/me/balance", auth, h.MyBalance)
	api.GET("/me/ledger", auth, h.MyLedger)

	// Withdrawals
	w := api.Group("/withdrawals")
	w.Use(auth)
	{
		w.GET("", h.ListWithdrawals)
		w.POST("", withdrawLimit, h.CreateWithdrawal)
		w.PUT("", middleware.AdminOnly(), h.DecideWithdrawal)
		w.DELETE("", withdrawLimit, h.CancelWithdrawal)
		w.POST("/estimate", h.EstimateWithdrawal)
		w.POST("/validate-recipient", h.ValidateRecipient)
		w.GET("/:id/history", h.WithdrawalHistory)
	}

	// Admin
	admin := api.Group("/admin")
	admin.Use(auth, middleware.AdminOnly())
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/withdrawals/history", h.AdminWithdrawalHistory)
		admin.POST("/withdrawal-methods/refresh", h.RefreshMethods)
		admin.POST("/credit", h.AdminCredit)
	}
}
