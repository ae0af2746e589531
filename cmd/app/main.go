package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"earntube/internal/bot"
	"earntube/internal/config"
	"earntube/internal/db"
	httpServer "earntube/internal/http"
	"earntube/internal/http/handlers"
	"earntube/internal/http/middleware"
	"earntube/internal/logger"
	"earntube/internal/repository"
	"earntube/internal/service"
	"earntube/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		middleware.InitRedisRateLimiter(rdb)
		if !middleware.RedisEnabled() {
			_ = rdb.Close()
			rdb = nil
		}
	}

	settings := service.SettingsFromConfig(cfg)
	catalog := service.NewMethodCatalog(repository.NewPaymentMethodRepository(dbPool), rdb, cfg.MethodCacheTTL)
	historyRepo := repository.NewHistoryRepository(dbPool)
	withdrawals := service.NewWithdrawalService(
		repository.NewWithdrawalRepository(dbPool),
		repository.NewUserRepository(dbPool),
		historyRepo,
	)
	admin := service.NewAdminService(dbPool, cfg.AdminTelegramIDs)
	balances := service.NewBalanceService(dbPool)

	hub := ws.NewHub()
	withdrawals.AddPublisher(hub)

	if cfg.AdminBotEnabled {
		adminIDs, err := admin.AdminTelegramIDs(context.Background())
		if err != nil {
			logger.Warn("load admin users failed, using configured ids", "error", err)
			adminIDs = cfg.AdminTelegramIDs
		}
		adminBot, err := bot.NewAdminBot(cfg.BotToken, bot.Deps{
			Withdrawals: withdrawals,
			Admin:       admin,
			Balances:    balances,
			Snapshot: func(ctx context.Context) (service.Snapshot, error) {
				return catalog.Current(ctx, settings)
			},
			AdminIDs: adminIDs,
		})
		if err != nil {
			logger.Error("admin bot disabled", "error", err)
		} else {
			withdrawals.AddPublisher(adminBot)
			go adminBot.Start()
			defer adminBot.Stop()
		}
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(cfg.AllowedOrigin))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		DB:     dbPool,
		Redis:  rdb,
		Config: cfg,
		Services: handlers.Services{
			Settings:    settings,
			Methods:     catalog,
			Withdrawals: withdrawals,
			History:     service.NewHistoryService(historyRepo),
			Balances:    balances,
			Admin:       admin,
		},
		Hub: hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", cfg.AppVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("server exited")
}
