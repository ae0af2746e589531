package service

import (
	"context"
	"testing"
	"time"

	"earntube/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSince(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, Since(now, "all"))
	assert.Equal(t, now.Add(-24*time.Hour), *Since(now, "1d"))
	assert.Equal(t, now.Add(-7*24*time.Hour), *Since(now, "7d"))
	assert.Equal(t, now.Add(-30*24*time.Hour), *Since(now, "30d"))
	assert.Equal(t, now.Add(-7*24*time.Hour), *Since(now, ""))
	assert.Equal(t, now.Add(-7*24*time.Hour), *Since(now, "90d"))
}

func TestHistoryPage(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := f.svc.Request(ctx, f.user, snapshot(), bkash("100"))
		require.NoError(t, err)
		if i%2 == 0 {
			_, err = f.svc.Decide(ctx, f.admin, snapshot(), DecideInput{WithdrawalID: res.Withdrawal.ID, Status: "approved"})
			require.NoError(t, err)
		}
	}

	hs := NewHistoryService(f.store)

	page, err := hs.Page(ctx, f.admin, HistoryPageQuery{Page: 1, Limit: 3, DateRange: "all"})
	require.NoError(t, err)
	assert.Len(t, page.Activities, 3)
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 3, Total: 8, HasNextPage: true, HasPrevPage: false}, page.Pagination)
	assert.Equal(t, domain.ActivityWithdrawalApproved, page.Activities[0].ActivityType)

	last, err := hs.Page(ctx, f.admin, HistoryPageQuery{Page: 3, Limit: 3, DateRange: "all"})
	require.NoError(t, err)
	assert.Len(t, last.Activities, 2)
	assert.False(t, last.Pagination.HasNextPage)
	assert.True(t, last.Pagination.HasPrevPage)

	approved, err := hs.Page(ctx, f.admin, HistoryPageQuery{ActivityType: "withdrawal_approved"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), approved.Pagination.Total)
	assert.Equal(t, 1, approved.Pagination.CurrentPage)

	_, err = hs.Page(ctx, f.admin, HistoryPageQuery{ActivityType: "deposit"})
	assertKind(t, err, KindValidation, "Invalid activity type")

	_, err = hs.Page(ctx, f.user, HistoryPageQuery{})
	assertKind(t, err, KindAuthorization, "")
}

func TestHistoryPageEmpty(t *testing.T) {
	f := newFixture(t, "10")
	page, err := NewHistoryService(f.store).Page(context.Background(), f.admin, HistoryPageQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Activities)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNextPage)
}
