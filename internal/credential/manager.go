package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teemow/daraja-mcp/internal/instrumentation"
	"github.com/teemow/daraja-mcp/internal/logging"
)

// State is the lifecycle state of a Manager.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateRenewing
	StateShuttingDown
	StateStopped
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateActive:
		return "ACTIVE"
	case StateRenewing:
		return "RENEWING"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrAlreadyStarted is returned by Start when the manager has left
	// the UNINITIALIZED state.
	ErrAlreadyStarted = errors.New("credential manager already started")

	// ErrShutdown is returned by Start when Shutdown was called while the
	// initial fetch was in flight.
	ErrShutdown = errors.New("credential manager is shut down")
)

// Recorder receives one observation per fetch attempt.
type Recorder interface {
	RecordCredentialFetch(ctx context.Context, result string, duration time.Duration)
}

// Config tunes the renewal schedule.
type Config struct {
	// Margin is subtracted from expires_in when scheduling a renewal
	// (default: 60s)
	Margin time.Duration

	// Floor is the minimum renewal delay and the retry delay after a failed
	// renewal (default: 60s)
	Floor time.Duration
}

func (c Config) withDefaults() Config {
	if c.Margin <= 0 {
		c.Margin = DefaultMargin
	}
	if c.Floor <= 0 {
		c.Floor = DefaultFloor
	}
	return c
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for lifecycle and renewal messages.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder for fetch attempts.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		m.recorder = r
	}
}

// Manager owns the process-wide bearer credential. It fetches the first
// credential synchronously in Start, renews it in a single background
// goroutine, and stops that goroutine in Shutdown.
//
// The current credential is read lock-free. mu guards state transitions
// only and is never held across a fetch.
type Manager struct {
	fetcher  Fetcher
	config   Config
	logger   *slog.Logger
	recorder Recorder

	// after and now are replaced in tests to drive the schedule
	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	current atomic.Pointer[Credential]

	mu       sync.Mutex
	state    State
	starting bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewManager creates a Manager in the UNINITIALIZED state.
func NewManager(fetcher Fetcher, config Config, opts ...Option) *Manager {
	m := &Manager{
		fetcher: fetcher,
		config:  config.withDefaults(),
		logger:  slog.Default(),
		after:   time.After,
		now:     time.Now,
		state:   StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.WithOperation(m.logger, "credential.renew")
	return m
}

// Config returns the effective renewal configuration.
func (m *Manager) Config() Config {
	return m.config
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentToken returns the token of the installed credential, or "" before
// the first successful fetch. It never blocks on a renewal in progress.
func (m *Manager) CurrentToken() string {
	if c := m.current.Load(); c != nil {
		return c.Token
	}
	return ""
}

// Current returns the installed credential snapshot, or nil.
func (m *Manager) Current() *Credential {
	return m.current.Load()
}

// RenewalDelay applies the configured margin and floor to expiresIn.
func (m *Manager) RenewalDelay(expiresIn int) time.Duration {
	return RenewalDelay(expiresIn, m.config.Margin, m.config.Floor)
}

// Start fetches the initial credential and launches the renewal loop. A
// failed initial fetch is returned as-is and leaves the manager
// UNINITIALIZED; nothing is retried.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUninitialized || m.starting {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.starting = true
	m.mu.Unlock()

	cred, err := m.fetch(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.starting = false

	if err != nil {
		return fmt.Errorf("failed to fetch initial access token: %w", err)
	}
	if m.state != StateUninitialized {
		m.recordDiscarded(ctx)
		return ErrShutdown
	}

	m.current.Store(cred)
	m.state = StateActive

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.done = make(chan struct{})

	delay := m.RenewalDelay(cred.ExpiresIn)
	m.logger.Info("access token acquired",
		slog.String("token", logging.SanitizeToken(cred.Token)),
		slog.Int("expires_in", cred.ExpiresIn),
		slog.Duration("next_renewal", delay))

	go m.loop(loopCtx, delay, m.done)
	return nil
}

// Shutdown stops the renewal loop and waits for it to exit or for ctx to
// expire. It is idempotent; before Start it moves straight to STOPPED.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateStopped:
		m.mu.Unlock()
		return nil
	case StateUninitialized:
		m.state = StateStopped
		m.mu.Unlock()
		return nil
	case StateShuttingDown:
		// An earlier Shutdown gave up waiting; finish the job.
	default:
		m.state = StateShuttingDown
		if m.cancel != nil {
			m.cancel()
		}
	}
	done := m.done
	m.mu.Unlock()

	if err := wait(ctx, done); err != nil {
		return fmt.Errorf("credential manager shutdown: %w", err)
	}

	m.mu.Lock()
	if m.state == StateStopped {
		m.mu.Unlock()
		return nil
	}
	m.state = StateStopped
	m.mu.Unlock()

	m.logger.Info("credential manager stopped", logging.State(StateStopped))
	return nil
}

func wait(ctx context.Context, done <-chan struct{}) error {
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loop is the only goroutine that replaces the credential after Start.
func (m *Manager) loop(ctx context.Context, delay time.Duration, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.after(delay):
		}

		if !m.transition(StateActive, StateRenewing) {
			return
		}

		cred, err := m.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.transition(StateRenewing, StateActive)
			delay = m.config.Floor
			m.logger.Warn("access token renewal failed, keeping current token",
				logging.Err(err),
				slog.Duration("retry_in", delay))
			continue
		}

		if !m.install(cred) {
			m.recordDiscarded(ctx)
			return
		}
		delay = m.RenewalDelay(cred.ExpiresIn)
		m.logger.Info("access token renewed",
			slog.String("token", logging.SanitizeToken(cred.Token)),
			slog.Int("expires_in", cred.ExpiresIn),
			slog.Duration("next_renewal", delay))
	}
}

// transition moves from one state to another, reporting false when the
// manager is not in the expected state (shutdown has begun).
func (m *Manager) transition(from, to State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != from {
		return false
	}
	m.state = to
	return true
}

// install swaps in cred unless shutdown has begun.
func (m *Manager) install(cred *Credential) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRenewing {
		return false
	}
	m.current.Store(cred)
	m.state = StateActive
	return true
}

func (m *Manager) fetch(ctx context.Context) (*Credential, error) {
	ctx, span := instrumentation.StartSpan(ctx, "credential.fetch")
	defer span.End()

	start := time.Now()
	cred, err := m.fetcher.FetchToken(ctx)
	if err == nil && (cred == nil || cred.Token == "") {
		err = errors.New("token endpoint returned an empty access token")
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
		m.record(ctx, instrumentation.CredentialResultFailure, time.Since(start))
		return nil, err
	}
	if cred.FetchedAt.IsZero() {
		cred.FetchedAt = m.now()
	}

	instrumentation.SetSpanSuccess(span)
	m.record(ctx, instrumentation.CredentialResultSuccess, time.Since(start))
	return cred, nil
}

func (m *Manager) record(ctx context.Context, result string, d time.Duration) {
	if m.recorder != nil {
		m.recorder.RecordCredentialFetch(ctx, result, d)
	}
}

func (m *Manager) recordDiscarded(ctx context.Context) {
	m.logger.Info("discarding access token fetched after shutdown began")
	m.record(ctx, instrumentation.CredentialResultDiscarded, 0)
}
