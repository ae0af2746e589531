package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"earntube/internal/currency"
	"earntube/internal/domain"
	"earntube/internal/logger"
	"earntube/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const pendingListLimit = 20

type WithdrawalDecider interface {
	Decide(ctx context.Context, actor *service.Actor, snap service.Snapshot, in service.DecideInput) (*service.DecideResult, error)
	List(ctx context.Context, actor *service.Actor, snap service.Snapshot, status string) ([]domain.WithdrawalView, error)
}

type AdminDirectory interface {
	GetStats(ctx context.Context) (*service.Stats, error)
	ActorByTelegramID(ctx context.Context, tgID int64) (*service.Actor, error)
	ResolveUserIdentifier(ctx context.Context, identifier string) (int64, error)
}

type BalanceReader interface {
	GetBalance(ctx context.Context, userID int64, conv currency.Converter) (*service.Balance, error)
}

// Deps are the services the bot drives
type Deps struct {
	Withdrawals WithdrawalDecider
	Admin       AdminDirectory
	Balances    BalanceReader
	Snapshot    func(ctx context.Context) (service.Snapshot, error)
	AdminIDs    []int64
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminBot lets admins moderate withdrawals from Telegram and announces new requests
type AdminBot struct {
	api    *tgbotapi.BotAPI
	send   sender
	deps   Deps
	notify chan domain.WithdrawalEvent
	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

// NewAdminBot creates a new admin bot
func NewAdminBot(token string, deps Deps) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b := newAdminBot(api, deps)
	b.api = api
	b.log.Info("admin bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newAdminBot(s sender, deps Deps) *AdminBot {
	return &AdminBot{
		send:   s,
		deps:   deps,
		notify: make(chan domain.WithdrawalEvent, 100),
		stopCh: make(chan struct{}),
		log:    logger.With("component", "admin_bot"),
	}
}

// Start starts listening for commands
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case ev := <-b.notify:
			b.announce(ev)
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.isAdmin(update.Message.From.ID) {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.reply(msg, b.handleCommand(msg.From.ID, msg.Command(), msg.CommandArguments()))
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

// Publish implements service.EventPublisher. New requests are queued for the
// update loop; a full queue drops the announcement.
func (b *AdminBot) Publish(ev domain.WithdrawalEvent) {
	if ev.Type != domain.EventWithdrawalCreated || ev.Withdrawal == nil {
		return
	}
	select {
	case b.notify <- ev:
	default:
		b.log.Warn("admin notification queue full", "withdrawal_id", ev.Withdrawal.ID)
	}
}

func (b *AdminBot) isAdmin(tgID int64) bool {
	for _, id := range b.deps.AdminIDs {
		if id == tgID {
			return true
		}
	}
	return false
}

func (b *AdminBot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = "HTML"
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.send.Send(out); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// handleCommand runs one admin command and returns the HTML reply
func (b *AdminBot) handleCommand(tgID int64, command, args string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command {
	case "start", "help":
		return helpMessage
	case "stats":
		return b.handleStats(ctx)
	case "withdrawals":
		return b.handleWithdrawals(ctx, tgID)
	case "approve":
		return b.handleApprove(ctx, tgID, args)
	case "reject":
		return b.handleReject(ctx, tgID, args)
	case "balance":
		return b.handleBalance(ctx, args)
	}
	return "❌ Unknown command. Use /help for the list of commands."
}

const helpMessage = `<b>🤖 Admin commands</b>

<b>📊 Statistics:</b>
/stats - Withdrawal statistics
/balance &lt;@username|tg_id&gt; - User balance

<b>💸 Withdrawals:</b>
/withdrawals - Pending withdrawals
/approve &lt;id&gt; - Approve a withdrawal
/reject &lt;id&gt; &lt;reason&gt; - Reject a withdrawal`

func (b *AdminBot) handleStats(ctx context.Context) string {
	stats, err := b.deps.Admin.GetStats(ctx)
	if err != nil {
		b.log.Error("load stats", "error", err)
		return "❌ Failed to load statistics"
	}

	return fmt.Sprintf(`<b>📊 Withdrawal statistics</b>

<b>👥 Users:</b> %d
<b>💰 Total user balance:</b> %s USDT

<b>⏳ Pending:</b> %d (%s USDT)
<b>✅ Approved:</b> %s USDT
<b>❌ Rejected:</b> %s USDT`,
		stats.TotalUsers,
		stats.TotalUserBalance.StringFixed(2),
		stats.PendingCount,
		stats.PendingAmount.StringFixed(2),
		stats.ApprovedAmount.StringFixed(2),
		stats.RejectedAmount.StringFixed(2),
	)
}

func (b *AdminBot) session(ctx context.Context, tgID int64) (*service.Actor, service.Snapshot, error) {
	actor, err := b.deps.Admin.ActorByTelegramID(ctx, tgID)
	if err != nil {
		return nil, service.Snapshot{}, err
	}
	snap, err := b.deps.Snapshot(ctx)
	if err != nil {
		return nil, service.Snapshot{}, err
	}
	return actor, snap, nil
}

func (b *AdminBot) handleWithdrawals(ctx context.Context, tgID int64) string {
	actor, snap, err := b.session(ctx, tgID)
	if err != nil {
		return b.failure("load session", err)
	}
	pending, err := b.deps.Withdrawals.List(ctx, actor, snap, string(domain.WithdrawalStatusPending))
	if err != nil {
		return b.failure("list withdrawals", err)
	}
	if len(pending) == 0 {
		return "✅ No pending withdrawals"
	}

	var sb strings.Builder
	sb.WriteString("<b>💸 Pending withdrawals</b>\n\n")
	for i, w := range pending {
		if i == pendingListLimit {
			sb.WriteString(fmt.Sprintf("… and %d more\n", len(pending)-pendingListLimit))
			break
		}
		user := "unknown"
		if w.Owner != nil {
			user = html.EscapeString(w.Owner.Username)
		}
		sb.WriteString(fmt.Sprintf("🆔 #%d | %s\n", w.ID, user))
		sb.WriteString(fmt.Sprintf("💰 %s BDT (%s USDT + %s fee)\n", w.BDTAmount.StringFixed(2), w.Amount.String(), w.Fee.String()))
		sb.WriteString(fmt.Sprintf("📱 %s <code>%s</code>\n", html.EscapeString(w.Method), html.EscapeString(w.Recipient)))
		sb.WriteString(fmt.Sprintf("📅 %s\n\n", w.CreatedAt.Format("02.01.2006 15:04")))
	}
	sb.WriteString("/approve &lt;id&gt; - approve\n/reject &lt;id&gt; &lt;reason&gt; - reject")
	return sb.String()
}

func (b *AdminBot) handleApprove(ctx context.Context, tgID int64, args string) string {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		return "❌ Usage: /approve &lt;id&gt;"
	}
	return b.decide(ctx, tgID, id, domain.WithdrawalStatusApproved, "")
}

func (b *AdminBot) handleReject(ctx context.Context, tgID int64, args string) string {
	idArg, reason, _ := strings.Cut(strings.TrimSpace(args), " ")
	id, err := strconv.ParseInt(idArg, 10, 64)
	reason = strings.TrimSpace(reason)
	if err != nil || id <= 0 || reason == "" {
		return "❌ Usage: /reject &lt;id&gt; &lt;reason&gt;"
	}
	return b.decide(ctx, tgID, id, domain.WithdrawalStatusRejected, reason)
}

func (b *AdminBot) decide(ctx context.Context, tgID, id int64, status domain.WithdrawalStatus, reason string) string {
	actor, snap, err := b.session(ctx, tgID)
	if err != nil {
		return b.failure("load session", err)
	}
	res, err := b.deps.Withdrawals.Decide(ctx, actor, snap, service.DecideInput{
		WithdrawalID: id,
		Status:       string(status),
		Reason:       reason,
		UserAgent:    "telegram-admin-bot",
	})
	if err != nil {
		return b.failure("decide withdrawal", err)
	}
	icon := "✅"
	if status == domain.WithdrawalStatusRejected {
		icon = "❌"
	}
	return fmt.Sprintf("%s Withdrawal #%d %s", icon, res.Withdrawal.ID, res.Withdrawal.Status)
}

func (b *AdminBot) handleBalance(ctx context.Context, args string) string {
	if strings.TrimSpace(args) == "" {
		return "❌ Usage: /balance &lt;@username|tg_id&gt;"
	}
	userID, err := b.deps.Admin.ResolveUserIdentifier(ctx, args)
	if err != nil {
		return "❌ User not found"
	}
	snap, err := b.deps.Snapshot(ctx)
	if err != nil {
		return b.failure("load settings", err)
	}
	bal, err := b.deps.Balances.GetBalance(ctx, userID, snap.Settings.Converter)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return "❌ User not found"
		}
		return b.failure("load balance", err)
	}
	return fmt.Sprintf("💰 User #%d: %s USDT (%s BDT)", userID, bal.USDT.String(), bal.BDT.StringFixed(2))
}

// failure renders user-correctable service errors verbatim and hides the rest
func (b *AdminBot) failure(op string, err error) string {
	var se *service.Error
	if errors.As(err, &se) && se.Kind != service.KindInternal {
		return "❌ " + html.EscapeString(se.Message)
	}
	b.log.Error(op, "error", err)
	return "❌ Internal error, check the logs"
}

// announce tells every admin about a new withdrawal request
func (b *AdminBot) announce(ev domain.WithdrawalEvent) {
	w := ev.Withdrawal
	message := fmt.Sprintf(`🔔 <b>New withdrawal request</b>

👤 User #%d (TG: %d)
💰 %s USDT + %s fee
📱 %s <code>%s</code>

ID: #%d

/approve %d - approve
/reject %d &lt;reason&gt; - reject`,
		w.UserID, w.TelegramID, w.Amount.String(), w.Fee.String(),
		html.EscapeString(w.Method), html.EscapeString(w.Recipient), w.ID, w.ID, w.ID)

	for _, adminID := range b.deps.AdminIDs {
		msg := tgbotapi.NewMessage(adminID, message)
		msg.ParseMode = "HTML"
		if _, err := b.send.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}
