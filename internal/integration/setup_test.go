package integration

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"earntube/internal/config"
	"earntube/internal/currency"
	"earntube/internal/domain"
	"earntube/internal/migrations"
	"earntube/internal/repository"
	"earntube/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var tgSeq = time.Now().UnixNano() / 1000

// openDB connects to DATABASE_URL and applies the embedded migrations.
func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.Apply(ctx, pool, nil))
	return pool
}

// newUser inserts a user with a fresh telegram id and credits balance through the ledger.
func newUser(t *testing.T, pool *pgxpool.Pool, role domain.Role, balance string) *domain.User {
	t.Helper()
	ctx := context.Background()

	u := &domain.User{
		TelegramID: atomic.AddInt64(&tgSeq, 1),
		Username:   "it_" + string(role),
		FullName:   "Integration " + string(role),
		Role:       role,
	}
	require.NoError(t, repository.NewUserRepository(pool).Create(ctx, u))

	if amount := decimal.RequireFromString(balance); amount.IsPositive() {
		b, err := service.NewBalanceService(pool).Credit(ctx, u.ID, amount, domain.LedgerAdminCredit, nil)
		require.NoError(t, err)
		u.Balance = b
	}
	return u
}

func testSettings() service.Settings {
	return service.Settings{
		MobileBankingMethodID: config.DefaultMobileBankingMethodID,
		Converter:             currency.NewConverter(decimal.NewFromInt(100)),
	}
}

func balanceOf(t *testing.T, pool *pgxpool.Pool, userID int64) decimal.Decimal {
	t.Helper()
	u, err := repository.NewUserRepository(pool).GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u.Balance
}
