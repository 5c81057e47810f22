// Package ledger owns the EcoCoin balance and its append-only transaction log.
//
// The balance is maintained alongside the log, not recomputed from it;
// Verify checks that the two still agree. The full log is retained for
// persistence; Recent exposes the capped display window.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
)

// DisplayWindow is the maximum number of transactions Recent returns.
const DisplayWindow = 50

// ─── Options ────────────────────────────────────────────────────────────────

// Option configures a Ledger at construction.
type Option func(*Ledger)

// WithBalance sets the current balance (negative values clamp to 0).
func WithBalance(b int64) Option {
	return func(l *Ledger) {
		if b < 0 {
			b = 0
		}
		l.balance = b
	}
}

// WithOpeningBalance sets the grant the log is reconciled against in Verify.
func WithOpeningBalance(b int64) Option {
	return func(l *Ledger) { l.opening = b }
}

// WithTransactions restores a persisted log, given newest first.
func WithTransactions(txs []domain.CoinTransaction) Option {
	return func(l *Ledger) {
		l.log = make([]domain.CoinTransaction, len(txs))
		for i, tx := range txs {
			l.log[len(txs)-1-i] = tx
		}
	}
}

// WithAchievements points the ledger at the achievement set that credits
// tagged with WithAchievement are unioned into.
func WithAchievements(set *domain.AchievementSet) Option {
	return func(l *Ledger) {
		if set != nil {
			l.achievements = set
		}
	}
}

// WithNotifier sets the receiver of credit/debit notifications.
func WithNotifier(n domain.Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithClock sets the time source for transaction dates.
func WithClock(c domain.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithIDGenerator replaces the uuid transaction ID source.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// WithLogger sets the ledger's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.logger = log }
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

// Ledger is not safe for concurrent use; the rewards engine serializes
// access to it.
type Ledger struct {
	balance      int64
	opening      int64
	log          []domain.CoinTransaction // oldest first
	achievements *domain.AchievementSet
	notifier     domain.Notifier
	clock        domain.Clock
	newID        func() string
	logger       zerolog.Logger
}

// New returns a ledger holding the starting balance unless overridden.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		balance:      domain.StartingBalance,
		opening:      domain.StartingBalance,
		achievements: &domain.AchievementSet{},
		clock:        domain.SystemClock,
		newID:        uuid.NewString,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Balance returns the current coin balance.
func (l *Ledger) Balance() int64 { return l.balance }

// Achievements returns the achievement set credits are unioned into.
func (l *Ledger) Achievements() *domain.AchievementSet { return l.achievements }

// ─── Credit ─────────────────────────────────────────────────────────────────

// CreditOption tags a credit with its origin.
type CreditOption func(*creditOpts)

type creditOpts struct {
	achievement string
	ctx         domain.TxContext
}

// WithAchievement marks the credit as the payout of an achievement; the key
// is added to the achievement set.
func WithAchievement(key string) CreditOption {
	return func(o *creditOpts) { o.achievement = key }
}

// WithContext attaches the originating feature context.
func WithContext(ctx domain.TxContext) CreditOption {
	return func(o *creditOpts) { o.ctx = ctx }
}

// Credit adds amount coins. A non-positive amount is a silent no-op that
// returns false.
func (l *Ledger) Credit(amount int64, reason string, opts ...CreditOption) (domain.CoinTransaction, bool) {
	if amount <= 0 {
		return domain.CoinTransaction{}, false
	}
	var o creditOpts
	for _, opt := range opts {
		opt(&o)
	}
	if o.achievement != "" && o.ctx.Kind == domain.ContextNone {
		o.ctx = domain.AchievementTx(o.achievement)
	}

	l.balance += amount
	tx := l.append(domain.TxEarned, amount, reason, o.ctx)
	if o.achievement != "" {
		l.achievements.Add(o.achievement)
	}

	l.logger.Debug().
		Int64("amount", amount).
		Str("reason", reason).
		Str("achievement", o.achievement).
		Int64("balance", l.balance).
		Msg("coins credited")
	l.notify(domain.Notification{Kind: domain.NotifyEarned, Amount: amount, Reason: reason, Balance: l.balance, At: tx.Date})
	return tx, true
}

// ─── Debit ──────────────────────────────────────────────────────────────────

// DebitResult reports the outcome of a Debit.
type DebitResult struct {
	OK     bool                   `json:"ok"`
	Needed int64                  `json:"needed,omitempty"` // coins short when !OK
	Tx     domain.CoinTransaction `json:"transaction,omitempty"`
}

// Err returns nil on success, otherwise ErrInvalidAmount or
// ErrInsufficientCoins.
func (r DebitResult) Err() error {
	switch {
	case r.OK:
		return nil
	case r.Needed > 0:
		return fmt.Errorf("%w: %d more needed", domain.ErrInsufficientCoins, r.Needed)
	default:
		return domain.ErrInvalidAmount
	}
}

// Debit spends amount coins on rewardName. It fails without mutating the
// ledger when amount is not positive or exceeds the balance.
func (l *Ledger) Debit(amount int64, rewardName string, ctx ...domain.TxContext) DebitResult {
	if amount <= 0 {
		return DebitResult{}
	}
	reason := "Redeemed: " + rewardName
	if l.balance < amount {
		needed := amount - l.balance
		l.logger.Info().
			Int64("amount", amount).
			Int64("balance", l.balance).
			Int64("needed", needed).
			Str("reward", rewardName).
			Msg("debit rejected")
		l.notify(domain.Notification{Kind: domain.NotifyRejected, Amount: amount, Reason: reason, Balance: l.balance, Needed: needed, At: l.clock.Now()})
		return DebitResult{Needed: needed}
	}

	var txCtx domain.TxContext
	if len(ctx) > 0 {
		txCtx = ctx[0]
	}
	l.balance -= amount
	tx := l.append(domain.TxSpent, amount, reason, txCtx)

	l.logger.Debug().
		Int64("amount", amount).
		Str("reward", rewardName).
		Int64("balance", l.balance).
		Msg("coins debited")
	l.notify(domain.Notification{Kind: domain.NotifySpent, Amount: amount, Reason: reason, Balance: l.balance, At: tx.Date})
	return DebitResult{OK: true, Tx: tx}
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Recent returns up to n transactions, newest first, never more than
// DisplayWindow. n <= 0 means the full window.
func (l *Ledger) Recent(n int) []domain.CoinTransaction {
	if n <= 0 || n > DisplayWindow {
		n = DisplayWindow
	}
	if n > len(l.log) {
		n = len(l.log)
	}
	out := make([]domain.CoinTransaction, 0, n)
	for i := len(l.log) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.log[i])
	}
	return out
}

// Transactions returns the full log, newest first.
func (l *Ledger) Transactions() []domain.CoinTransaction {
	out := make([]domain.CoinTransaction, len(l.log))
	for i, tx := range l.log {
		out[len(l.log)-1-i] = tx
	}
	return out
}

// Len returns the number of transactions in the full log.
func (l *Ledger) Len() int { return len(l.log) }

// HasReasonOn reports whether a transaction with exactly this reason was
// recorded on the given calendar day, in the zone each transaction was
// stamped in.
func (l *Ledger) HasReasonOn(reason string, day domain.Date) bool {
	for i := len(l.log) - 1; i >= 0; i-- {
		tx := l.log[i]
		if tx.Reason == reason && domain.DateOf(tx.Date) == day {
			return true
		}
	}
	return false
}

// HasContext reports whether any transaction's context satisfies match.
func (l *Ledger) HasContext(match func(domain.TxContext) bool) bool {
	for i := len(l.log) - 1; i >= 0; i-- {
		if match(l.log[i].Context) {
			return true
		}
	}
	return false
}

// OpeningBalance returns the grant Verify reconciles against.
func (l *Ledger) OpeningBalance() int64 { return l.opening }

// Totals returns the lifetime earned and spent coin sums.
func (l *Ledger) Totals() (earned, spent int64) {
	for _, tx := range l.log {
		switch tx.Type {
		case domain.TxEarned:
			earned += tx.Amount
		case domain.TxSpent:
			spent += tx.Amount
		}
	}
	return earned, spent
}

// Verify reconciles the balance with opening + Σearned − Σspent.
func (l *Ledger) Verify() error {
	earned, spent := l.Totals()
	if want := l.opening + earned - spent; want != l.balance {
		return fmt.Errorf("%w: balance %d, log implies %d", domain.ErrBalanceMismatch, l.balance, want)
	}
	return nil
}

// ─── Internals ──────────────────────────────────────────────────────────────

func (l *Ledger) append(typ domain.TransactionType, amount int64, reason string, ctx domain.TxContext) domain.CoinTransaction {
	tx := domain.CoinTransaction{
		ID:      l.newID(),
		Type:    typ,
		Amount:  amount,
		Reason:  reason,
		Date:    l.clock.Now().Truncate(time.Millisecond),
		Context: ctx,
	}
	l.log = append(l.log, tx)
	return tx
}

func (l *Ledger) notify(n domain.Notification) {
	if l.notifier != nil {
		l.notifier.Notify(n)
	}
}
