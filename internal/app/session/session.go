// Package session binds a rewards engine to durable storage. A Session is
// one user's engine; the Manager loads it on first use, credits the daily
// login, and writes state back after every dispatched event.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanakmaheshwari3115/AmazonHackon/internal/app/rewards"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/domain"
	"github.com/kanakmaheshwari3115/AmazonHackon/internal/logging"
)

// DefaultUser is the user a single-user install keeps its state under.
const DefaultUser = "local"

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used for the login check and passed to
// every engine.
func WithClock(c domain.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the parent logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithEngineOptions appends options applied to every engine the manager builds.
func WithEngineOptions(opts ...rewards.Option) Option {
	return func(m *Manager) { m.engineOpts = append(m.engineOpts, opts...) }
}

// Manager owns the open sessions.
type Manager struct {
	store      domain.StateStore
	cfg        rewards.Config
	clock      domain.Clock
	logger     zerolog.Logger
	engineOpts []rewards.Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager persisting to store.
func NewManager(store domain.StateStore, cfg rewards.Config, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		cfg:      cfg,
		clock:    domain.SystemClock,
		logger:   zerolog.Nop(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.ComponentLogger(m.logger, "session")
	return m
}

// Open returns the user's session, loading it on first use. Missing state
// starts the user fresh; malformed state is logged and replaced with the
// defaults. Every Open credits the daily login bonus when it is due, so a
// long-lived session still earns it once per calendar day.
func (m *Manager) Open(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		if err := s.login(ctx, m.clock.Now()); err != nil {
			return nil, err
		}
		return s, nil
	}

	state, err := m.store.Load(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStateNotFound):
		state = domain.NewState(m.cfg.StartingBalance)
	case errors.Is(err, domain.ErrCorruptState):
		m.logger.Warn().Err(err).Str("user", userID).Msg("saved state unreadable, starting from defaults")
		state = domain.NewState(m.cfg.StartingBalance)
	default:
		return nil, fmt.Errorf("open session %s: %w", userID, err)
	}

	opts := append([]rewards.Option{
		rewards.WithClock(m.clock),
		rewards.WithLogger(m.logger.With().Str("user", userID).Logger()),
	}, m.engineOpts...)
	eng, err := rewards.Restore(state, m.cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("open session %s: %w", userID, err)
	}
	if err := eng.Verify(); err != nil {
		m.logger.Warn().Err(err).Str("user", userID).Msg("balance does not reconcile with log")
	}

	s := &Session{userID: userID, engine: eng, m: m}
	m.sessions[userID] = s

	if err := s.login(ctx, m.clock.Now()); err != nil {
		return nil, err
	}
	return s, nil
}

// Flush saves every open session.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Save(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ─── Session ────────────────────────────────────────────────────────────────

// Session is one user's live engine.
type Session struct {
	userID string
	engine *rewards.Engine
	m      *Manager

	saveMu sync.Mutex

	loginDay domain.Date // last day the login bonus was checked; guarded by Manager.mu
}

// UserID returns the session's user.
func (s *Session) UserID() string { return s.userID }

// Engine returns the session's engine for read-only queries. Use Do for
// anything that changes state.
func (s *Session) Engine() *rewards.Engine { return s.engine }

// Do runs fn against the engine and saves the result. The save happens
// even when fn fails, since fn may have changed state before failing.
func (s *Session) Do(ctx context.Context, fn func(*rewards.Engine) error) error {
	fnErr := fn(s.engine)
	if err := s.save(ctx); err != nil {
		return errors.Join(fnErr, err)
	}
	return fnErr
}

// login credits the daily bonus on the first call of each calendar day.
func (s *Session) login(ctx context.Context, now time.Time) error {
	day := domain.DateOf(now)
	if day == s.loginDay {
		return nil
	}
	s.loginDay = day
	if !s.engine.RecordLogin(now) {
		return nil
	}
	return s.save(ctx)
}

// Save writes the session's state to the store.
func (s *Session) Save(ctx context.Context) error { return s.save(ctx) }

func (s *Session) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if err := s.m.store.Save(ctx, s.userID, s.engine.Snapshot()); err != nil {
		s.m.logger.Error().Err(err).Str("user", s.userID).Msg("save failed")
		return fmt.Errorf("save session %s: %w", s.userID, err)
	}
	return nil
}
