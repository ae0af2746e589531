package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"earntube/internal/domain"
	"earntube/internal/repository"

	"github.com/shopspring/decimal"
)

// memStore mirrors the transactional behaviour of the Postgres repositories:
// every mutation happens under one lock and is all or nothing.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*domain.User
	withdrawals map[int64]*domain.Withdrawal
	history     []*domain.HistoryEntry
	ledger      []domain.LedgerEntry
	keys        map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]*domain.User{},
		withdrawals: map[int64]*domain.Withdrawal{},
		keys:        map[string]int64{},
	}
}

func (m *memStore) addUser(u domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	m.users[u.ID] = &u
	return &u
}

func (m *memStore) balance(userID int64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID].Balance
}

func (m *memStore) ledgerFor(userID int64) []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []domain.LedgerEntry
	for _, e := range m.ledger {
		if e.UserID == userID {
			res = append(res, e)
		}
	}
	return res
}

func keyOf(userID int64, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (m *memStore) GetByRequestID(ctx context.Context, userID int64, key string) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, used := m.keys[keyOf(userID, key)]
	if !used {
		return nil, repository.ErrNotFound
	}
	w, ok := m.withdrawals[id]
	if !ok {
		return nil, repository.ErrDuplicateRequest
	}
	c := *w
	return &c, nil
}

func (m *memStore) CreatePending(ctx context.Context, w *domain.Withdrawal, h *domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w.RequestID != "" {
		if _, used := m.keys[keyOf(w.UserID, w.RequestID)]; used {
			return repository.ErrDuplicateRequest
		}
	}
	u, ok := m.users[w.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.Balance.LessThan(w.Debit()) {
		return repository.ErrInsufficientFunds
	}

	u.Balance = u.Balance.Sub(w.Debit())
	m.nextID++
	now := time.Now()
	w.ID, w.CreatedAt, w.UpdatedAt = m.nextID, now, now
	c := *w
	m.withdrawals[w.ID] = &c
	if w.RequestID != "" {
		m.keys[keyOf(w.UserID, w.RequestID)] = w.ID
	}

	h.WithdrawalID = w.ID
	m.appendHistory(h)
	m.ledger = append(m.ledger, domain.LedgerEntry{UserID: w.UserID, Type: domain.LedgerWithdrawalDebit, Amount: w.Debit().Neg()})
	return nil
}

func (m *memStore) Decide(ctx context.Context, id int64, status domain.WithdrawalStatus, refund decimal.Decimal, h *domain.HistoryEntry) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil, repository.ErrNotPending
	}
	w.Status = status
	w.UpdatedAt = time.Now()
	m.settle(w, refund, h)
	c := *w
	return &c, nil
}

func (m *memStore) CancelPending(ctx context.Context, id int64, refund decimal.Decimal, h *domain.HistoryEntry) (*domain.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil, repository.ErrNotPending
	}
	delete(m.withdrawals, id)
	m.settle(w, refund, h)
	return w, nil
}

func (m *memStore) settle(w *domain.Withdrawal, refund decimal.Decimal, h *domain.HistoryEntry) {
	h.WithdrawalID = w.ID
	m.appendHistory(h)
	if refund.IsPositive() {
		u := m.users[w.UserID]
		u.Balance = u.Balance.Add(refund)
		m.ledger = append(m.ledger, domain.LedgerEntry{UserID: w.UserID, Type: domain.LedgerWithdrawalRefund, Amount: refund})
	}
}

func (m *memStore) appendHistory(h *domain.HistoryEntry) {
	m.nextID++
	h.ID = m.nextID
	h.CreatedAt = time.Now()
	c := *h
	m.history = append(m.history, &c)
}

func (m *memStore) List(ctx context.Context, f domain.WithdrawalFilter) ([]domain.WithdrawalView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []domain.WithdrawalView
	for _, w := range m.withdrawals {
		if f.UserID != 0 && w.UserID != f.UserID {
			continue
		}
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		v := domain.WithdrawalView{Withdrawal: *w}
		if f.WithOwner {
			if u, ok := m.users[w.UserID]; ok {
				v.Owner = &domain.WithdrawalOwner{Username: "@" + u.Username, FullName: u.FullName, Email: u.Email}
			}
		}
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	if f.Limit > 0 && len(res) > f.Limit {
		res = res[:f.Limit]
	}
	return res, nil
}

// UserReader

type memUsers struct{ *memStore }

func (m memUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

// HistoryReader

func (m *memStore) ByWithdrawal(ctx context.Context, withdrawalID int64) ([]*domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*domain.HistoryEntry
	for _, h := range m.history {
		if h.WithdrawalID == withdrawalID {
			c := *h
			res = append(res, &c)
		}
	}
	return res, nil
}

func (m *memStore) Query(ctx context.Context, q domain.HistoryQuery) ([]*domain.HistoryEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.HistoryEntry
	for i := len(m.history) - 1; i >= 0; i-- {
		h := m.history[i]
		if q.ActivityType != "" && h.ActivityType != q.ActivityType {
			continue
		}
		if q.Since != nil && h.CreatedAt.Before(*q.Since) {
			continue
		}
		all = append(all, h)
	}
	start := (q.Page - 1) * q.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}
