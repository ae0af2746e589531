package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"earntube/internal/domain"
	"earntube/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// AdminService provides admin statistics and operator identity for the bot
type AdminService struct {
	db          *pgxpool.Pool
	users       *repository.UserRepository
	withdrawals *repository.WithdrawalRepository
	adminTgIDs  map[int64]struct{}
}

// NewAdminService creates a new admin service. adminTgIDs are telegram ids granted admin rights
// regardless of their stored role.
func NewAdminService(db *pgxpool.Pool, adminTgIDs []int64) *AdminService {
	ids := make(map[int64]struct{}, len(adminTgIDs))
	for _, id := range adminTgIDs {
		ids[id] = struct{}{}
	}
	return &AdminService{
		db:          db,
		users:       repository.NewUserRepository(db),
		withdrawals: repository.NewWithdrawalRepository(db),
		adminTgIDs:  ids,
	}
}

// Stats represents withdrawal statistics
type Stats struct {
	TotalUsers       int64           `json:"totalUsers"`
	PendingCount     int64           `json:"pendingCount"`
	PendingAmount    decimal.Decimal `json:"pendingAmount"`
	ApprovedAmount   decimal.Decimal `json:"approvedAmount"`
	RejectedAmount   decimal.Decimal `json:"rejectedAmount"`
	TotalUserBalance decimal.Decimal `json:"totalUserBalance"`
}

// GetStats returns withdrawal statistics
func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, err
	}

	var err error
	if stats.PendingCount, stats.PendingAmount, err = s.withdrawals.PendingSummary(ctx); err != nil {
		return nil, err
	}
	if stats.ApprovedAmount, err = s.withdrawals.TotalByStatus(ctx, domain.WithdrawalStatusApproved); err != nil {
		return nil, err
	}
	if stats.RejectedAmount, err = s.withdrawals.TotalByStatus(ctx, domain.WithdrawalStatusRejected); err != nil {
		return nil, err
	}
	if stats.TotalUserBalance, err = s.users.TotalBalance(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

// IsAdminTelegramID reports whether tgID is listed in ADMIN_TELEGRAM_IDS
func (s *AdminService) IsAdminTelegramID(tgID int64) bool {
	_, ok := s.adminTgIDs[tgID]
	return ok
}

// AdminTelegramIDs returns the configured admin ids plus the telegram ids of users stored with the admin role
func (s *AdminService) AdminTelegramIDs(ctx context.Context) ([]int64, error) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(s.adminTgIDs)+len(admins))
	for id := range s.adminTgIDs {
		seen[id] = struct{}{}
	}
	for _, u := range admins {
		seen[u.TelegramID] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ActorByTelegramID resolves a bot operator to the actor the processors expect.
func (s *AdminService) ActorByTelegramID(ctx context.Context, tgID int64) (*Actor, error) {
	u, err := s.users.GetByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	role := u.Role
	if s.IsAdminTelegramID(tgID) {
		role = domain.RoleAdmin
	}
	return &Actor{UserID: u.ID, Role: role}, nil
}

// ResolveUserIdentifier resolves @username or tg_id to internal user ID
func (s *AdminService) ResolveUserIdentifier(ctx context.Context, identifier string) (int64, error) {
	identifier = strings.TrimSpace(identifier)
	if tgID, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		u, err := s.users.GetByTelegramID(ctx, tgID)
		if err != nil {
			return 0, err
		}
		return u.ID, nil
	}

	var id int64
	err := s.db.QueryRow(ctx,
		`SELECT id FROM users WHERE LOWER(username) = LOWER($1)`,
		strings.TrimPrefix(identifier, "@"),
	).Scan(&id)
	return id, err
}
