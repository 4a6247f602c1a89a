// Package breaker implements a failure-rate circuit breaker for downstream
// dependencies (LLM API, cache store, vector index).
package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/metrics"
)

// State is a circuit breaker state.
type State int

const (
	// StateClosed passes calls through and tracks outcomes.
	StateClosed State = iota
	// StateOpen rejects calls without invoking the wrapped function.
	StateOpen
	// StateHalfOpen lets exactly the next call through to probe recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker settings.
type Config struct {
	Name             string
	FailureThreshold float64       // failure rate that trips the circuit, (0, 1]
	Timeout          time.Duration // open-state cooldown before a probe call
	WindowSize       int           // recent calls tracked
	Logger           *zap.Logger
}

// Breaker tracks the failure rate of a protected call over a sliding window
// and trips open when the rate reaches the threshold. Calls are serialized
// per instance: the wrapped function runs under the breaker lock, so state
// transitions (in particular the single HALF_OPEN probe) are race-free.
type Breaker struct {
	name             string
	failureThreshold float64
	timeout          time.Duration
	windowSize       int
	logger           *zap.Logger
	now              func() time.Time

	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	lastFailureAt    time.Time // zero value = no failure yet
	lastTransitionAt time.Time
}

// Snapshot is an observability read of breaker state. Never use it for
// control flow: the state may change the moment the lock is released.
type Snapshot struct {
	Name             string
	State            State
	Failures         int
	Successes        int
	FailureRate      float64
	LastTransitionAt time.Time
}

// New creates a circuit breaker. Zero config fields get production defaults
// (threshold 0.5, timeout 60s, window 10).
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 0.5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	b := &Breaker{
		name:             cfg.Name,
		failureThreshold: cfg.FailureThreshold,
		timeout:          cfg.Timeout,
		windowSize:       cfg.WindowSize,
		logger:           cfg.Logger,
		now:              time.Now,
	}
	b.lastTransitionAt = b.now()
	metrics.BreakerState.WithLabelValues(b.name).Set(float64(StateClosed))
	return b
}

// Call executes fn under breaker protection. When the circuit is open and
// the cooldown has not elapsed, fn is not invoked and the returned error
// wraps domain.ErrCircuitOpen. Otherwise fn's error (if any) is recorded
// and propagated unchanged.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if !b.cooldownElapsed() {
			metrics.BreakerCallsTotal.WithLabelValues(b.name, "rejected").Inc()
			b.logger.Warn("circuit open, rejecting call", zap.String("breaker", b.name))
			return fmt.Errorf("breaker %q: %w", b.name, domain.ErrCircuitOpen)
		}
		b.transition(StateHalfOpen)
		b.logger.Info("attempting reset", zap.String("breaker", b.name))
	}

	if err := fn(ctx); err != nil {
		b.onFailure()
		metrics.BreakerCallsTotal.WithLabelValues(b.name, "failure").Inc()
		return err
	}

	b.onSuccess()
	metrics.BreakerCallsTotal.WithLabelValues(b.name, "success").Inc()
	return nil
}

// Reset forces the breaker to CLOSED with zeroed counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.successes = 0
	b.lastFailureAt = time.Time{}
	b.transition(StateClosed)
	b.logger.Info("manual reset", zap.String("breaker", b.name))
}

// Snapshot returns the current breaker state for observability.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	var rate float64
	if total := b.successes + b.failures; total > 0 {
		rate = float64(b.failures) / float64(total)
	}

	return Snapshot{
		Name:             b.name,
		State:            b.state,
		Failures:         b.failures,
		Successes:        b.successes,
		FailureRate:      rate,
		LastTransitionAt: b.lastTransitionAt,
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

func (b *Breaker) onSuccess() {
	b.successes++
	b.rescaleWindow()

	if b.state == StateHalfOpen {
		b.failures = 0
		b.transition(StateClosed)
		b.logger.Info("service recovered", zap.String("breaker", b.name))
	}
}

func (b *Breaker) onFailure() {
	b.failures++
	b.lastFailureAt = b.now()
	b.rescaleWindow()

	total := b.successes + b.failures
	if total == 0 {
		return
	}
	rate := float64(b.failures) / float64(total)
	if rate >= b.failureThreshold && b.state != StateOpen {
		b.transition(StateOpen)
		b.logger.Error("opening circuit",
			zap.String("breaker", b.name),
			zap.Float64("failure_rate", rate),
		)
	}
}

// rescaleWindow shrinks the counters back to the window size, preserving the
// success:failure ratio. Integer truncation toward zero is deliberate: the
// drift it introduces across repeated rescales is harmless for a resilience
// heuristic.
func (b *Breaker) rescaleWindow() {
	total := b.successes + b.failures
	if total <= b.windowSize {
		return
	}
	ratio := float64(b.successes) / float64(total)
	b.successes = int(float64(b.windowSize) * ratio)
	b.failures = b.windowSize - b.successes
}

func (b *Breaker) cooldownElapsed() bool {
	if b.lastFailureAt.IsZero() {
		return false
	}
	return b.now().Sub(b.lastFailureAt) >= b.timeout
}

func (b *Breaker) transition(to State) {
	b.state = to
	b.lastTransitionAt = b.now()
	metrics.BreakerState.WithLabelValues(b.name).Set(float64(to))
}
