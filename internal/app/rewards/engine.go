// Package rewards is the event dispatcher of the EcoCoin engine.
//
// For each domain event the Engine, in order: updates milestone counters,
// recomputes the analysis streak (analysis events only), evaluates the
// achievement rules, credits the ledger for every rule that fired and for
// the event's flat reward, and queues newly unlocked achievements for
// display. Every operation completes before it returns.
package rewards

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/ecoscore"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/ledger"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/milestone"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/streak"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/logging"
)

// ─── Options ────────────────────────────────────────────────────────────────

// Option configures an Engine.
type Option func(*options)

type options struct {
	clock    domain.Clock
	notifier domain.Notifier
	observer Observer
	logger   zerolog.Logger
	newID    func() string
	calc     *ecoscore.Calculator
}

// WithClock sets the engine's time source.
func WithClock(c domain.Clock) Option { return func(o *options) { o.clock = c } }

// WithNotifier sets the receiver of ledger notifications.
func WithNotifier(n domain.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithObserver sets the metrics observer.
func WithObserver(obs Observer) Option { return func(o *options) { o.observer = obs } }

// WithLogger sets the parent logger.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = l } }

// WithIDGenerator replaces the transaction ID source.
func WithIDGenerator(gen func() string) Option { return func(o *options) { o.newID = gen } }

// WithCalculator replaces the default EcoScore calculator.
func WithCalculator(c ecoscore.Calculator) Option { return func(o *options) { o.calc = &c } }

// ─── Engine ─────────────────────────────────────────────────────────────────

// Engine owns one user's balance, log, streak and milestones. It is safe
// for concurrent use; events are applied one at a time in arrival order.
type Engine struct {
	mu sync.Mutex

	cfg      Config
	calc     ecoscore.Calculator
	ledger   *ledger.Ledger
	rules    *milestone.Tracker
	streaks  *streak.Tracker
	observer Observer
	clock    domain.Clock
	logger   zerolog.Logger

	streak     domain.StreakState
	milestones domain.Milestones
	pending    []domain.Unlock
}

// New returns an engine for a brand new user.
func New(cfg Config, opts ...Option) (*Engine, error) {
	return Restore(domain.NewState(cfg.StartingBalance), cfg, opts...)
}

// Restore resumes an engine from persisted state.
func Restore(state domain.State, cfg Config, opts ...Option) (*Engine, error) {
	o := options{
		clock:    domain.SystemClock,
		observer: NopObserver{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	rules, err := milestone.NewTracker(cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("rewards: %w", err)
	}
	streaks, err := streak.NewTracker(cfg.StreakThresholds)
	if err != nil {
		return nil, fmt.Errorf("rewards: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		calc:       ecoscore.DefaultCalculator(),
		rules:      rules,
		streaks:    streaks,
		observer:   o.observer,
		clock:      o.clock,
		logger:     logging.ComponentLogger(o.logger, "rewards"),
		streak:     cloneStreak(state.Streak),
		milestones: state.Milestones.Clone(),
	}
	if o.calc != nil {
		e.calc = *o.calc
	}

	lopts := []ledger.Option{
		ledger.WithBalance(state.Balance),
		ledger.WithOpeningBalance(state.OpeningBalance),
		ledger.WithTransactions(state.Transactions),
		ledger.WithAchievements(&e.milestones.Achievements),
		ledger.WithClock(o.clock),
		ledger.WithLogger(logging.ComponentLogger(o.logger, "ledger")),
	}
	if o.notifier != nil {
		lopts = append(lopts, ledger.WithNotifier(o.notifier))
	}
	if o.newID != nil {
		lopts = append(lopts, ledger.WithIDGenerator(o.newID))
	}
	e.ledger = ledger.New(lopts...)

	e.observer.BalanceChanged(e.ledger.Balance())
	e.observer.StreakChanged(e.streak.Days)
	return e, nil
}

// Config returns the engine's reward table.
func (e *Engine) Config() Config { return e.cfg }

// ─── Scoring ────────────────────────────────────────────────────────────────

// ComputeEcoScore scores a product.
func (e *Engine) ComputeEcoScore(p domain.ProductAttributes) float64 {
	return e.ScoreBreakdown(p).Final
}

// ScoreBreakdown returns the sub-scores behind a product's EcoScore.
func (e *Engine) ScoreBreakdown(p domain.ProductAttributes) ecoscore.SubScores {
	b := e.calc.Breakdown(p)
	e.observer.EcoScoreComputed(b.Final)
	return b
}

// ─── Ledger passthrough ─────────────────────────────────────────────────────

// Credit adds coins directly. Callers must not credit the same
// achievement key twice; the event methods guard that themselves.
func (e *Engine) Credit(amount int64, reason string, opts ...ledger.CreditOption) (domain.CoinTransaction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.credit("manual", amount, reason, opts...)
}

// Debit spends coins on rewardName.
func (e *Engine) Debit(amount int64, rewardName string) ledger.DebitResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.debit(amount, rewardName, domain.TxContext{})
}

// ─── Queries ────────────────────────────────────────────────────────────────

// Balance returns the current coin balance.
func (e *Engine) Balance() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Balance()
}

// Recent returns up to n transactions for display, newest first.
func (e *Engine) Recent(n int) []domain.CoinTransaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Recent(n)
}

// Totals returns lifetime coins earned and spent.
func (e *Engine) Totals() (earned, spent int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Totals()
}

// Streak returns the stored streak state.
func (e *Engine) Streak() domain.StreakState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneStreak(e.streak)
}

// StreakDays returns the streak as it reads on today: 0 once it lapsed.
func (e *Engine) StreakDays(today domain.Date) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return streak.Current(today, e.streak)
}

// Milestones returns a copy of the counters and unlocked set.
func (e *Engine) Milestones() domain.Milestones {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.milestones.Clone()
}

// Progress reports each achievement rule against the current counters.
func (e *Engine) Progress() []milestone.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rules.Progress(e.milestones)
}

// Catalog returns the redeemable rewards.
func (e *Engine) Catalog() []domain.CoinReward {
	return append([]domain.CoinReward(nil), e.cfg.Catalog...)
}

// Verify reconciles the balance with the transaction log.
func (e *Engine) Verify() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Verify()
}

// Snapshot returns the full state for persistence, including the whole
// transaction log.
func (e *Engine) Snapshot() domain.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.State{
		Balance:        e.ledger.Balance(),
		OpeningBalance: e.ledger.OpeningBalance(),
		Transactions:   e.ledger.Transactions(),
		Streak:         cloneStreak(e.streak),
		Milestones:     e.milestones.Clone(),
	}
}

// PendingUnlocks returns the unlocks not yet drained, oldest first.
func (e *Engine) PendingUnlocks() []domain.Unlock {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Unlock(nil), e.pending...)
}

// DrainUnlocks returns and clears the pending unlocks.
func (e *Engine) DrainUnlocks() []domain.Unlock {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pending
	e.pending = nil
	return out
}

// ─── Internals (lock held) ──────────────────────────────────────────────────

func (e *Engine) credit(source string, amount int64, reason string, opts ...ledger.CreditOption) (domain.CoinTransaction, bool) {
	tx, ok := e.ledger.Credit(amount, reason, opts...)
	if ok {
		e.observer.CoinsEarned(source, amount)
		e.observer.BalanceChanged(e.ledger.Balance())
	}
	return tx, ok
}

func (e *Engine) debit(amount int64, rewardName string, ctx domain.TxContext) ledger.DebitResult {
	res := e.ledger.Debit(amount, rewardName, ctx)
	switch {
	case res.OK:
		e.observer.CoinsSpent(amount)
		e.observer.BalanceChanged(e.ledger.Balance())
	case res.Needed > 0:
		e.observer.DebitRejected()
	}
	return res
}

// unlock grants a one-time achievement. It is a no-op returning false when
// key is already unlocked. A zero reward records the key without a credit.
func (e *Engine) unlock(key string, reward int64, reason string) (domain.Unlock, bool) {
	if key == "" || e.milestones.Achievements.Has(key) {
		return domain.Unlock{}, false
	}
	if _, ok := e.credit("achievement", reward, reason, ledger.WithAchievement(key)); !ok {
		e.milestones.Achievements.Add(key)
	}

	u := domain.Unlock{Key: key, Reason: reason, Reward: reward, At: e.clock.Now()}
	e.pending = append(e.pending, u)
	e.observer.AchievementUnlocked(key)
	e.logger.Info().Str("achievement", key).Int64("reward", reward).Msg("achievement unlocked")
	return u, true
}

// applyRules grants every rule that fired, then evaluates again until a
// pass unlocks nothing, so rules over achievements see earlier unlocks.
func (e *Engine) applyRules() []domain.Unlock {
	var out []domain.Unlock
	for {
		fired, err := e.rules.Evaluate(e.milestones)
		if err != nil {
			e.logger.Warn().Err(err).Msg("achievement rule evaluation failed")
		}
		n := len(out)
		for _, r := range fired {
			if u, ok := e.unlock(r.Key, r.Reward, r.Reason); ok {
				out = append(out, u)
			}
		}
		if len(out) == n {
			return out
		}
	}
}

func cloneStreak(s domain.StreakState) domain.StreakState {
	if s.LastActivity != nil {
		d := *s.LastActivity
		s.LastActivity = &d
	}
	return s
}
