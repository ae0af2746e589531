package handlers

import (
	"context"
	"sync"
	"time"

	"earntube/internal/domain"
	"earntube/internal/repository"

	"github.com/shopspring/decimal"
)

// fakeStore is a minimal in-memory WithdrawalStore/UserReader/HistoryReader
type fakeStore struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*domain.User
	withdrawals map[int64]*domain.Withdrawal
	keys        map[string]int64
	history     []*domain.HistoryEntry
}

func newFakeStore(users ...domain.User) *fakeStore {
	s := &fakeStore{
		users:       map[int64]*domain.User{},
		withdrawals: map[int64]*domain.Withdrawal{},
		keys:        map[string]int64{},
	}
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
	return s
}

func (s *fakeStore) balance(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Balance
}

func (s *fakeStore) CreatePending(ctx context.Context, w *domain.Withdrawal, h *domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.RequestID != "" {
		if _, ok := s.keys[w.RequestID]; ok {
			return repository.ErrDuplicateRequest
		}
	}
	u, ok := s.users[w.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.Balance.LessThan(w.Debit()) {
		return repository.ErrInsufficientFunds
	}
	u.Balance = u.Balance.Sub(w.Debit())
	s.nextID++
	w.ID, w.CreatedAt = s.nextID, time.Now()
	c := *w
	s.withdrawals[w.ID] = &c
	if w.RequestID != "" {
		s.keys[w.RequestID] = w.ID
	}
	h.WithdrawalID = w.ID
	s.history = append(s.history, h)
	return nil
}

func (s *fakeStore) transition(id int64, refund decimal.Decimal, h *domain.HistoryEntry, apply func(w *domain.Withdrawal)) (*domain.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil, repository.ErrNotPending
	}
	apply(w)
	if refund.IsPositive() {
		s.users[w.UserID].Balance = s.users[w.UserID].Balance.Add(refund)
	}
	h.WithdrawalID = id
	s.history = append(s.history, h)
	c := *w
	return &c, nil
}

func (s *fakeStore) Decide(ctx context.Context, id int64, status domain.WithdrawalStatus, refund decimal.Decimal, h *domain.HistoryEntry) (*domain.Withdrawal, error) {
	return s.transition(id, refund, h, func(w *domain.Withdrawal) { w.Status = status })
}

func (s *fakeStore) CancelPending(ctx context.Context, id int64, refund decimal.Decimal, h *domain.HistoryEntry) (*domain.Withdrawal, error) {
	return s.transition(id, refund, h, func(w *domain.Withdrawal) { delete(s.withdrawals, w.ID) })
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *w
	return &c, nil
}

func (s *fakeStore) GetByRequestID(ctx context.Context, userID int64, key string) (*domain.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.keys[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	w, ok := s.withdrawals[id]
	if !ok || w.UserID != userID {
		return nil, repository.ErrDuplicateRequest
	}
	c := *w
	return &c, nil
}

func (s *fakeStore) List(ctx context.Context, f domain.WithdrawalFilter) ([]domain.WithdrawalView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []domain.WithdrawalView
	for i := s.nextID; i > 0; i-- {
		w, ok := s.withdrawals[i]
		if !ok || (f.UserID != 0 && w.UserID != f.UserID) || (f.Status != "" && w.Status != f.Status) {
			continue
		}
		res = append(res, domain.WithdrawalView{Withdrawal: *w})
	}
	return res, nil
}

func (s *fakeStore) ByWithdrawal(ctx context.Context, id int64) ([]*domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*domain.HistoryEntry
	for _, h := range s.history {
		if h.WithdrawalID == id {
			res = append(res, h)
		}
	}
	return res, nil
}

func (s *fakeStore) Query(ctx context.Context, q domain.HistoryQuery) ([]*domain.HistoryEntry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history, int64(len(s.history)), nil
}

// fakeUsers exposes the users of a fakeStore as a UserReader
type fakeUsers struct{ *fakeStore }

func (u fakeUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	usr, ok := u.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *usr
	return &c, nil
}

type staticMethods []*domain.PaymentMethod

func (m staticMethods) List(ctx context.Context) ([]*domain.PaymentMethod, error) {
	return m, nil
}
