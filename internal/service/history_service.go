package service

import (
	"context"
	"time"

	"earntube/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryService serves the append-only withdrawal trail to admins
type HistoryService struct {
	repo HistoryReader
	now  func() time.Time
}

// NewHistoryService creates a new history service
func NewHistoryService(repo HistoryReader) *HistoryService {
	return &HistoryService{repo: repo, now: time.Now}
}

type HistoryPageQuery struct {
	Page         int
	Limit        int
	ActivityType string
	DateRange    string // 1d, 7d, 30d or all
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

type HistoryPage struct {
	Activities []*domain.HistoryEntry `json:"activities"`
	Pagination Pagination             `json:"pagination"`
}

// Since converts a date range into its lower bound. Unknown ranges mean 7d.
func Since(now time.Time, dateRange string) *time.Time {
	var d time.Duration
	switch dateRange {
	case "all":
		return nil
	case "1d":
		d = 24 * time.Hour
	case "30d":
		d = 30 * 24 * time.Hour
	default:
		d = 7 * 24 * time.Hour
	}
	t := now.Add(-d)
	return &t
}

// Page returns one page of withdrawal activity
func (s *HistoryService) Page(ctx context.Context, actor *Actor, q HistoryPageQuery) (*HistoryPage, error) {
	if actor == nil {
		return nil, errUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, errForbidden
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultHistoryLimit
	}
	if q.Limit > maxHistoryLimit {
		q.Limit = maxHistoryLimit
	}

	activity := domain.ActivityType(q.ActivityType)
	switch activity {
	case "", domain.ActivityWithdrawalRequest, domain.ActivityWithdrawalApproved, domain.ActivityWithdrawalRejected:
	default:
		return nil, newError(KindValidation, "Invalid activity type")
	}

	entries, total, err := s.repo.Query(ctx, domain.HistoryQuery{
		ActivityType: activity,
		Since:        Since(s.now(), q.DateRange),
		Page:         q.Page,
		Limit:        q.Limit,
	})
	if err != nil {
		return nil, internalError("query history", err)
	}
	if entries == nil {
		entries = []*domain.HistoryEntry{}
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &HistoryPage{
		Activities: entries,
		Pagination: Pagination{
			CurrentPage: q.Page,
			TotalPages:  totalPages,
			Total:       total,
			HasNextPage: q.Page < totalPages,
			HasPrevPage: q.Page > 1,
		},
	}, nil
}
