package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"earntube/internal/currency"
	"earntube/internal/domain"
	"earntube/internal/fee"
	"earntube/internal/logger"
	"earntube/internal/recipient"
	"earntube/internal/repository"

	"github.com/shopspring/decimal"
)

// listAllLimit caps the admin listing
const listAllLimit = 500

// WithdrawalStore persists the withdrawal lifecycle. Implementations must apply every
// mutation atomically and guard transitions with status = pending.
type WithdrawalStore interface {
	CreatePending(ctx context.Context, w *domain.Withdrawal, h *domain.HistoryEntry) error
	Decide(ctx context.Context, id int64, status domain.WithdrawalStatus, refund decimal.Decimal, h *domain.HistoryEntry) (*domain.Withdrawal, error)
	CancelPending(ctx context.Context, id int64, refund decimal.Decimal, h *domain.HistoryEntry) (*domain.Withdrawal, error)
	GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error)
	GetByRequestID(ctx context.Context, userID int64, key string) (*domain.Withdrawal, error)
	List(ctx context.Context, f domain.WithdrawalFilter) ([]domain.WithdrawalView, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type HistoryReader interface {
	ByWithdrawal(ctx context.Context, withdrawalID int64) ([]*domain.HistoryEntry, error)
	Query(ctx context.Context, q domain.HistoryQuery) ([]*domain.HistoryEntry, int64, error)
}

// EventPublisher receives committed lifecycle transitions. Publish must not block.
type EventPublisher interface {
	Publish(ev domain.WithdrawalEvent)
}

type WithdrawalService struct {
	store      WithdrawalStore
	users      UserReader
	history    HistoryReader
	publishers []EventPublisher
	now        func() time.Time
}

func NewWithdrawalService(store WithdrawalStore, users UserReader, history HistoryReader) *WithdrawalService {
	return &WithdrawalService{
		store:   store,
		users:   users,
		history: history,
		now:     time.Now,
	}
}

// AddPublisher registers a subscriber for withdrawal events
func (s *WithdrawalService) AddPublisher(p EventPublisher) {
	s.publishers = append(s.publishers, p)
}

func (s *WithdrawalService) publish(typ string, w *domain.Withdrawal, actorID int64, reason string) {
	ev := domain.WithdrawalEvent{Type: typ, Withdrawal: w, ActorID: actorID, Reason: reason, At: s.now()}
	for _, p := range s.publishers {
		p.Publish(ev)
	}
}

type RequestInput struct {
	Method    string
	Amount    string
	Recipient string
	Network   string
	Type      string
	RequestID string
	ClientIP  string
	UserAgent string
}

type MethodInfo struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Currency      string `json:"currency"`
	EstimatedTime string `json:"estimatedTime"`
}

type RequestResult struct {
	Withdrawal     *domain.Withdrawal
	Fee            decimal.Decimal
	AmountAfterFee decimal.Decimal
	BDTAmount      decimal.Decimal
	BDTFee         decimal.Decimal
	PaymentType    string
	FeeBreakdown   map[string]interface{}
	MethodInfo     MethodInfo
	Replayed       bool
}

// Request validates a withdrawal request and reserves amount+fee from the user's balance.
func (s *WithdrawalService) Request(ctx context.Context, actor *Actor, snap Snapshot, in RequestInput) (res *RequestResult, err error) {
	defer func() { withdrawalRequests.WithLabelValues(outcomeOf(err)).Inc() }()

	if actor == nil {
		return nil, errUnauthorized
	}
	log := logger.WithContext(ctx).With("user_id", actor.UserID)

	if in.RequestID != "" {
		if res, err := s.replay(ctx, actor, snap, in.RequestID); res != nil || err != nil {
			return res, err
		}
	}

	if strings.TrimSpace(in.Method) == "" || strings.TrimSpace(in.Amount) == "" || strings.TrimSpace(in.Recipient) == "" {
		return nil, newError(KindValidation, "Missing required fields")
	}
	if strings.EqualFold(strings.TrimSpace(in.Type), domain.PaymentTypeCrypto) && !snap.Settings.CryptoEnabled {
		return nil, newError(KindValidation, "Crypto withdrawals are currently in maintenance mode. Please use Mobile Banking methods.")
	}
	if strings.TrimSpace(in.Network) != "" {
		return nil, newError(KindValidation, "Network parameter is not required for Mobile Banking methods")
	}

	method, err := mobileBankingMethod(snap)
	if err != nil {
		return nil, err
	}

	amount, err := currency.ParseAmount(in.Amount)
	if err != nil {
		return nil, newError(KindValidation, "Invalid amount")
	}

	normalized, ok := recipient.Normalize(in.Recipient)
	if !ok {
		return nil, newError(KindValidation, "Invalid phone number format")
	}

	if amount.LessThan(method.MinAmount) {
		return nil, newError(KindValidation, fmt.Sprintf("Minimum withdrawal amount is %s BDT", method.MinAmount))
	}
	if amount.GreaterThan(method.MaxAmount) {
		return nil, newError(KindValidation, fmt.Sprintf("Maximum withdrawal amount is %s BDT", method.MaxAmount))
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "User not found")
		}
		return nil, internalError("load user", err)
	}

	conv := snap.Settings.Converter
	ledgerAmount := conv.ToLedger(amount)
	fr := fee.Calculate(ledgerAmount, in.Method, snap.Catalog)
	required := ledgerAmount.Add(fr.Fee)
	if user.Balance.LessThan(required) {
		return nil, insufficientFunds(required, user.Balance)
	}

	breakdown := fr.Breakdown.Map()
	description := fmt.Sprintf("Withdrawal request of %s BDT via %s", amount, method.Name)
	w := &domain.Withdrawal{
		TelegramID:   user.TelegramID,
		UserID:       user.ID,
		ActivityType: domain.ActivityWithdrawalRequest,
		Amount:       ledgerAmount,
		Fee:          fr.Fee,
		Method:       in.Method,
		Recipient:    in.Recipient,
		Status:       domain.WithdrawalStatusPending,
		Description:  description,
		RequestID:    in.RequestID,
		Metadata: map[string]interface{}{
			domain.MetaIPAddress:  in.ClientIP,
			domain.MetaDeviceInfo: in.UserAgent,
			"originalAmount":      amount.String(),
			"currency":            "BDT",
			"fee":                 fr.Fee.String(),
			"amountAfterFee":      fr.AmountAfterFee.String(),
			"feeType":             fr.Policy.Kind.String(),
			"paymentType":         domain.PaymentTypeMobileBanking,
			"feeBreakdown":        breakdown,
			"normalizedRecipient": normalized,
			"methodId":            method.ID,
		},
	}
	h := &domain.HistoryEntry{
		TelegramID:   user.TelegramID,
		UserID:       user.ID,
		ActivityType: domain.ActivityWithdrawalRequest,
		Amount:       ledgerAmount,
		Method:       in.Method,
		Recipient:    in.Recipient,
		Status:       domain.WithdrawalStatusPending,
		Description:  description,
		Metadata: map[string]interface{}{
			domain.MetaIPAddress:  in.ClientIP,
			domain.MetaDeviceInfo: in.UserAgent,
		},
	}

	if err := s.store.CreatePending(ctx, w, h); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientFunds):
			available := user.Balance
			if fresh, ferr := s.users.GetByID(ctx, user.ID); ferr == nil {
				available = fresh.Balance
			}
			return nil, insufficientFunds(required, available)
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(KindNotFound, "User not found")
		case errors.Is(err, repository.ErrDuplicateRequest):
			if res, rerr := s.replay(ctx, actor, snap, in.RequestID); res != nil || rerr != nil {
				return res, rerr
			}
			return nil, newError(KindStateConflict, "Duplicate withdrawal request")
		}
		return nil, internalError("create withdrawal", err)
	}

	log.Info("withdrawal requested",
		"withdrawal_id", w.ID,
		"amount", w.Amount.String(),
		"fee", w.Fee.String(),
		"method", w.Method,
	)
	s.publish(domain.EventWithdrawalCreated, w, actor.UserID, "")

	return &RequestResult{
		Withdrawal:     w,
		Fee:            fr.Fee,
		AmountAfterFee: fr.AmountAfterFee,
		BDTAmount:      amount,
		BDTFee:         conv.ToDisplay(fr.Fee),
		PaymentType:    domain.PaymentTypeMobileBanking,
		FeeBreakdown:   breakdown,
		MethodInfo:     methodInfo(method),
	}, nil
}

// replay returns the withdrawal previously created under key, if any.
func (s *WithdrawalService) replay(ctx context.Context, actor *Actor, snap Snapshot, key string) (*RequestResult, error) {
	w, err := s.store.GetByRequestID(ctx, actor.UserID, key)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, nil
	case errors.Is(err, repository.ErrDuplicateRequest):
		return nil, newError(KindStateConflict, "Duplicate withdrawal request")
	default:
		return nil, internalError("lookup idempotency key", err)
	}

	conv := snap.Settings.Converter
	res := &RequestResult{
		Withdrawal:     w,
		Fee:            w.Fee,
		AmountAfterFee: w.Amount.Sub(w.Fee),
		BDTAmount:      conv.ToDisplay(w.Amount),
		BDTFee:         conv.ToDisplay(w.Fee),
		PaymentType:    domain.PaymentTypeMobileBanking,
		Replayed:       true,
	}
	if v, ok := w.Metadata["paymentType"].(string); ok {
		res.PaymentType = v
	}
	if v, ok := w.Metadata["feeBreakdown"].(map[string]interface{}); ok {
		res.FeeBreakdown = v
	}
	if m, ok := snap.Catalog.Method(snap.Settings.MobileBankingMethodID); ok {
		res.MethodInfo = methodInfo(m)
	}
	logger.WithContext(ctx).Info("withdrawal request replayed", "withdrawal_id", w.ID, "user_id", actor.UserID)
	return res, nil
}

func mobileBankingMethod(snap Snapshot) (domain.PaymentMethod, error) {
	m, ok := snap.Catalog.Method(snap.Settings.MobileBankingMethodID)
	if !ok {
		return m, newError(KindValidation, "Invalid withdrawal method")
	}
	if !m.IsActive() {
		msg := m.Message
		if msg == "" {
			msg = "This payment method is currently unavailable"
		}
		return m, newError(KindValidation, msg)
	}
	if m.Category != domain.CategoryMobileBanking {
		return m, newError(KindValidation, "Only Mobile Banking methods are currently supported. Crypto withdrawals are in maintenance mode.")
	}
	return m, nil
}

func methodInfo(m domain.PaymentMethod) MethodInfo {
	return MethodInfo{
		Name:          m.Name,
		Category:      m.Category,
		Currency:      m.Currency,
		EstimatedTime: m.EstimatedTime,
	}
}

func insufficientFunds(required, available decimal.Decimal) *Error {
	return newError(KindInsufficientFunds, fmt.Sprintf(
		"Insufficient balance to cover amount and fees: required %s USDT, available %s USDT",
		required, available,
	))
}

type DecideInput struct {
	WithdrawalID int64
	Status       string
	Reason       string
	ClientIP     string
	UserAgent    string
}

type DecideResult struct {
	Withdrawal *domain.Withdrawal
	Message    string
}

// Decide applies an admin decision to a pending withdrawal. Rejection refunds the principal.
func (s *WithdrawalService) Decide(ctx context.Context, actor *Actor, snap Snapshot, in DecideInput) (*DecideResult, error) {
	if actor == nil {
		return nil, errUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, errForbidden
	}

	status := domain.WithdrawalStatus(in.Status)
	if in.WithdrawalID <= 0 || !status.IsDecision() {
		return nil, newError(KindValidation, "Invalid request data")
	}

	w, err := s.store.GetByID(ctx, in.WithdrawalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "Withdrawal not found")
		}
		return nil, internalError("load withdrawal", err)
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil, newError(KindStateConflict, "Can only update pending withdrawals")
	}

	activity := domain.ActivityWithdrawalApproved
	refund := decimal.Zero
	if status == domain.WithdrawalStatusRejected {
		activity = domain.ActivityWithdrawalRejected
		refund = s.refundOf(w, snap)
	}

	meta := map[string]interface{}{
		domain.MetaAdminID:    actor.UserID,
		domain.MetaIPAddress:  in.ClientIP,
		domain.MetaDeviceInfo: in.UserAgent,
	}
	if in.Reason != "" {
		meta[domain.MetaReason] = in.Reason
	}
	h := &domain.HistoryEntry{
		TelegramID:   w.TelegramID,
		UserID:       w.UserID,
		ActivityType: activity,
		Amount:       w.Amount,
		Method:       w.Method,
		Recipient:    w.Recipient,
		Status:       status,
		Description:  fmt.Sprintf("Withdrawal request %s for %s USDT via %s", status, w.Amount, w.Method),
		Metadata:     meta,
	}

	updated, err := s.store.Decide(ctx, w.ID, status, refund, h)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotPending):
			return nil, newError(KindStateConflict, "Can only update pending withdrawals")
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(KindNotFound, "Withdrawal not found")
		}
		return nil, internalError("decide withdrawal", err)
	}

	withdrawalDecisions.WithLabelValues(string(status)).Inc()
	logger.WithContext(ctx).Info("withdrawal decided",
		"withdrawal_id", updated.ID,
		"user_id", updated.UserID,
		"admin_id", actor.UserID,
		"status", status,
		"refund", refund.String(),
	)

	typ := domain.EventWithdrawalApproved
	if status == domain.WithdrawalStatusRejected {
		typ = domain.EventWithdrawalRejected
	}
	s.publish(typ, updated, actor.UserID, in.Reason)

	return &DecideResult{
		Withdrawal: updated,
		Message:    fmt.Sprintf("Withdrawal %s successfully", status),
	}, nil
}

func (s *WithdrawalService) refundOf(w *domain.Withdrawal, snap Snapshot) decimal.Decimal {
	if snap.Settings.RefundFeeOnReject {
		return w.Debit()
	}
	return w.Amount
}

type CancelInput struct {
	WithdrawalID int64
	ClientIP     string
	UserAgent    string
}

type CancelResult struct {
	Withdrawal        *domain.Withdrawal
	RefundedAmount    decimal.Decimal
	RefundedAmountBDT decimal.Decimal
}

// Cancel withdraws a pending request on behalf of its owner. The live record is removed,
// the history trail stays.
func (s *WithdrawalService) Cancel(ctx context.Context, actor *Actor, snap Snapshot, in CancelInput) (*CancelResult, error) {
	if actor == nil {
		return nil, errUnauthorized
	}
	if in.WithdrawalID <= 0 {
		return nil, newError(KindValidation, "Missing withdrawal ID")
	}

	w, err := s.store.GetByID(ctx, in.WithdrawalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "Withdrawal not found")
		}
		return nil, internalError("load withdrawal", err)
	}
	// other users' withdrawals look missing
	if w.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, newError(KindNotFound, "Withdrawal not found")
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil, newError(KindStateConflict, "Can only cancel pending withdrawals")
	}

	refund := s.refundOf(w, snap)
	h := &domain.HistoryEntry{
		TelegramID:   w.TelegramID,
		UserID:       w.UserID,
		ActivityType: domain.ActivityWithdrawalRejected,
		Amount:       w.Amount,
		Method:       w.Method,
		Recipient:    w.Recipient,
		Status:       domain.WithdrawalStatusRejected,
		Description:  fmt.Sprintf("Withdrawal request cancelled by user for %s USDT via %s", w.Amount, w.Method),
		Metadata: map[string]interface{}{
			domain.MetaReason:     domain.CancelReason,
			domain.MetaIPAddress:  in.ClientIP,
			domain.MetaDeviceInfo: in.UserAgent,
		},
	}

	cancelled, err := s.store.CancelPending(ctx, w.ID, refund, h)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotPending):
			return nil, newError(KindStateConflict, "Can only cancel pending withdrawals")
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(KindNotFound, "Withdrawal not found")
		}
		return nil, internalError("cancel withdrawal", err)
	}

	withdrawalCancellations.Inc()
	logger.WithContext(ctx).Info("withdrawal cancelled",
		"withdrawal_id", cancelled.ID,
		"user_id", cancelled.UserID,
		"refund", refund.String(),
	)
	s.publish(domain.EventWithdrawalCancelled, cancelled, actor.UserID, domain.CancelReason)

	return &CancelResult{
		Withdrawal:        cancelled,
		RefundedAmount:    refund,
		RefundedAmountBDT: snap.Settings.Converter.ToDisplay(refund),
	}, nil
}

// List returns the 500 newest withdrawals for admins and the caller's own withdrawals otherwise.
func (s *WithdrawalService) List(ctx context.Context, actor *Actor, snap Snapshot, status string) ([]domain.WithdrawalView, error) {
	if actor == nil {
		return nil, errUnauthorized
	}

	f := domain.WithdrawalFilter{
		Status: domain.WithdrawalStatus(status),
		Limit:  listAllLimit,
	}
	if status != "" && f.Status != domain.WithdrawalStatusPending && !f.Status.IsDecision() {
		return nil, newError(KindValidation, "Invalid status filter")
	}
	if actor.IsAdmin() {
		f.WithOwner = true
	} else {
		f.UserID = actor.UserID
	}

	views, err := s.store.List(ctx, f)
	if err != nil {
		return nil, internalError("list withdrawals", err)
	}
	conv := snap.Settings.Converter
	for i := range views {
		views[i].BDTAmount = conv.DisplayAmount(views[i].Method, views[i].Amount)
	}
	if views == nil {
		views = []domain.WithdrawalView{}
	}
	return views, nil
}

type Estimate struct {
	Amount         decimal.Decimal        `json:"amount"`
	BDTAmount      decimal.Decimal        `json:"bdtAmount"`
	Fee            decimal.Decimal        `json:"fee"`
	BDTFee         decimal.Decimal        `json:"bdtFee"`
	AmountAfterFee decimal.Decimal        `json:"amountAfterFee"`
	TotalDebit     decimal.Decimal        `json:"totalDebit"`
	FeeBreakdown   map[string]interface{} `json:"feeBreakdown"`
}

// Estimate previews the fee of a BDT amount without touching any balance.
func (s *WithdrawalService) Estimate(snap Snapshot, method, amount string) (*Estimate, error) {
	bdt, err := currency.ParseAmount(amount)
	if err != nil {
		return nil, newError(KindValidation, "Invalid amount")
	}
	conv := snap.Settings.Converter
	ledgerAmount := conv.ToLedger(bdt)
	fr := fee.Calculate(ledgerAmount, method, snap.Catalog)
	return &Estimate{
		Amount:         ledgerAmount,
		BDTAmount:      bdt,
		Fee:            fr.Fee,
		BDTFee:         conv.ToDisplay(fr.Fee),
		AmountAfterFee: fr.AmountAfterFee,
		TotalDebit:     ledgerAmount.Add(fr.Fee),
		FeeBreakdown:   fr.Breakdown.Map(),
	}, nil
}

// History returns the transition trail of one withdrawal. It outlives cancellation.
func (s *WithdrawalService) History(ctx context.Context, actor *Actor, withdrawalID int64) ([]*domain.HistoryEntry, error) {
	if actor == nil {
		return nil, errUnauthorized
	}
	entries, err := s.history.ByWithdrawal(ctx, withdrawalID)
	if err != nil {
		return nil, internalError("load history", err)
	}
	if len(entries) == 0 {
		return nil, newError(KindNotFound, "Withdrawal not found")
	}
	if !actor.IsAdmin() && entries[0].UserID != actor.UserID {
		return nil, newError(KindNotFound, "Withdrawal not found")
	}
	return entries, nil
}
