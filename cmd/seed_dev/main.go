package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"earntube/internal/config"
	"earntube/internal/currency"
	"earntube/internal/db"
	"earntube/internal/domain"
	"earntube/internal/logger"
	"earntube/internal/repository"
	"earntube/internal/service"
)

// seed_dev creates a regular user and an admin for local testing,
// credits the user and prints a bearer token for each.
func main() {
	userTg := flag.Int64("user-tg", 1000001, "telegram id of the dev user")
	adminTg := flag.Int64("admin-tg", 1000002, "telegram id of the dev admin")
	credit := flag.String("credit", "100", "USDT credited to the dev user")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret)

	amount, err := currency.ParseAmount(*credit)
	if err != nil {
		logger.Fatal("invalid credit amount", "value", *credit, "error", err)
	}

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepository(pool)
	balances := service.NewBalanceService(pool)

	user := &domain.User{TelegramID: *userTg, Username: "dev_user", FullName: "Dev User", Email: "dev@example.com"}
	if err := users.Create(ctx, user); err != nil {
		logger.Fatal("create user failed", "error", err)
	}
	admin := &domain.User{TelegramID: *adminTg, Username: "dev_admin", FullName: "Dev Admin", Role: domain.RoleAdmin}
	if err := users.Create(ctx, admin); err != nil {
		logger.Fatal("create admin failed", "error", err)
	}

	if amount.IsPositive() {
		balance, err := balances.Credit(ctx, user.ID, amount, domain.LedgerAdminCredit, map[string]interface{}{"source": "seed_dev"})
		if err != nil {
			logger.Fatal("credit failed", "error", err)
		}
		logger.Info("user credited", "user_id", user.ID, "amount", amount.String(), "balance", balance.String())
	}

	for _, u := range []*domain.User{user, admin} {
		token, err := service.GenerateJWT(u.ID, u.Role)
		if err != nil {
			logger.Fatal("generate jwt failed", "user_id", u.ID, "error", err)
		}
		fmt.Printf("%s\tid=%d\ttoken=%s\n", u.Role, u.ID, token)
	}
}
