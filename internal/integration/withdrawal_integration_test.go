package integration

import (
	"context"
	"sync"
	"testing"

	"earntube/internal/domain"
	"earntube/internal/repository"
	"earntube/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pgEnv struct {
	t     *testing.T
	pool  *pgxpool.Pool
	svc   *service.WithdrawalService
	store *repository.WithdrawalRepository
	snap  service.Snapshot
}

func newPGEnv(t *testing.T) *pgEnv {
	t.Helper()
	pool := openDB(t)

	store := repository.NewWithdrawalRepository(pool)
	svc := service.NewWithdrawalService(store, repository.NewUserRepository(pool), repository.NewHistoryRepository(pool))
	snap, err := service.NewMethodCatalog(repository.NewPaymentMethodRepository(pool), nil, 0).Current(context.Background(), testSettings())
	require.NoError(t, err)

	return &pgEnv{t: t, pool: pool, svc: svc, store: store, snap: snap}
}

func (e *pgEnv) user(role domain.Role, balance string) *domain.User {
	return newUser(e.t, e.pool, role, balance)
}

func (e *pgEnv) balance(userID int64) string {
	return balanceOf(e.t, e.pool, userID).String()
}

func actorOf(u *domain.User) *service.Actor {
	return &service.Actor{UserID: u.ID, Role: u.Role}
}

func TestWithdrawal_RequestRejectRefunds(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()

	alice := env.user(domain.RoleUser, "10")
	admin := env.user(domain.RoleAdmin, "0")

	res, err := env.svc.Request(ctx, actorOf(alice), env.snap, service.RequestInput{
		Method:    "bkash",
		Amount:    "500",
		Recipient: "01712345678",
		RequestID: uuid.NewString(),
	})
	require.NoError(t, err)
	w := res.Withdrawal
	assert.Equal(t, domain.WithdrawalStatusPending, w.Status)
	assert.Equal(t, "5", w.Amount.String())
	assert.Equal(t, "0.5", w.Fee.String())
	assert.Equal(t, "4.5", env.balance(alice.ID))

	dec, err := env.svc.Decide(ctx, actorOf(admin), env.snap, service.DecideInput{
		WithdrawalID: w.ID,
		Status:       "rejected",
		Reason:       "wrong recipient",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusRejected, dec.Withdrawal.Status)
	// the fee is kept
	assert.Equal(t, "9.5", env.balance(alice.ID))

	_, err = env.svc.Decide(ctx, actorOf(admin), env.snap, service.DecideInput{WithdrawalID: w.ID, Status: "approved"})
	assert.Equal(t, service.KindStateConflict, service.KindOf(err))

	history, err := env.svc.History(ctx, actorOf(admin), w.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ActivityWithdrawalRequest, history[0].ActivityType)
	assert.Equal(t, domain.ActivityWithdrawalRejected, history[1].ActivityType)
}

func TestWithdrawal_IdempotentReplay(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()

	alice := env.user(domain.RoleUser, "10")
	in := service.RequestInput{Method: "bkash", Amount: "100", Recipient: "+8801712345678", RequestID: uuid.NewString()}

	first, err := env.svc.Request(ctx, actorOf(alice), env.snap, in)
	require.NoError(t, err)
	second, err := env.svc.Request(ctx, actorOf(alice), env.snap, in)
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Withdrawal.ID, second.Withdrawal.ID)
	assert.Equal(t, "8.9", env.balance(alice.ID))
}

func TestWithdrawal_InsufficientFundsLeavesBalance(t *testing.T) {
	env := newPGEnv(t)

	alice := env.user(domain.RoleUser, "1")
	_, err := env.svc.Request(context.Background(), actorOf(alice), env.snap, service.RequestInput{
		Method: "bkash", Amount: "100", Recipient: "01712345678",
	})
	assert.Equal(t, service.KindInsufficientFunds, service.KindOf(err))
	assert.Equal(t, "1", env.balance(alice.ID))
}

func TestWithdrawal_CancelRemovesRecordKeepsHistory(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()

	alice := env.user(domain.RoleUser, "10")
	bob := env.user(domain.RoleUser, "0")

	res, err := env.svc.Request(ctx, actorOf(alice), env.snap, service.RequestInput{
		Method: "nagad", Amount: "200", Recipient: "01812345678",
	})
	require.NoError(t, err)
	id := res.Withdrawal.ID

	_, err = env.svc.Cancel(ctx, actorOf(bob), env.snap, service.CancelInput{WithdrawalID: id})
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	out, err := env.svc.Cancel(ctx, actorOf(alice), env.snap, service.CancelInput{WithdrawalID: id})
	require.NoError(t, err)
	assert.Equal(t, "2", out.RefundedAmount.String())
	assert.Equal(t, "200", out.RefundedAmountBDT.String())
	assert.Equal(t, "9.8", env.balance(alice.ID))

	_, err = env.store.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	history, err := env.svc.History(ctx, actorOf(alice), id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestWithdrawal_ConcurrentDecisionsSettleOnce(t *testing.T) {
	env := newPGEnv(t)
	ctx := context.Background()

	alice := env.user(domain.RoleUser, "10")
	admin := env.user(domain.RoleAdmin, "0")

	res, err := env.svc.Request(ctx, actorOf(alice), env.snap, service.RequestInput{
		Method: "bkash", Amount: "500", Recipient: "01712345678",
	})
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Decide(ctx, actorOf(admin), env.snap, service.DecideInput{WithdrawalID: res.Withdrawal.ID, Status: "rejected"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, service.KindStateConflict, service.KindOf(err))
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, "9.5", env.balance(alice.ID))
}
