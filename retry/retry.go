// ABOUTME: Retry loop modelled as a small state machine over a BackOff
// ABOUTME: Idle -> Attempting -> Succeeded | BackingOff -> Exhausted
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrExhausted is returned when the backoff reports no further delays.
var ErrExhausted = errors.New("backoff exhausted")

// State is the position of a Loop in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateBackingOff
	StateSucceeded
	StateExhausted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateBackingOff:
		return "backing_off"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Operation is a single attempt of a retried action.
type Operation func(ctx context.Context) error

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleeper is the default Sleeper backed by a timer.
func ContextSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Loop drives one logical retry loop. It is not reusable.
type Loop struct {
	name     string
	backoff  BackOff
	sleep    Sleeper
	logger   *slog.Logger
	state    State
	attempts int
	waited   time.Duration
	observe  func(from, to State)
}

// State returns the current state of the loop.
func (l *Loop) State() State { return l.state }

// Attempts returns how many times the operation has been invoked.
func (l *Loop) Attempts() int { return l.attempts }

// Waited returns the cumulative backoff delay slept so far.
func (l *Loop) Waited() time.Duration { return l.waited }

func (l *Loop) transition(to State) {
	from := l.state
	l.state = to
	if l.observe != nil {
		l.observe(from, to)
	}
}

// Run attempts op until it succeeds, returns a permanent error, the backoff is
// exhausted or ctx is cancelled.
func (l *Loop) Run(ctx context.Context, op Operation) error {
	if l.state != StateIdle {
		return fmt.Errorf("retry loop %q already ran (state %s)", l.name, l.state)
	}

	for {
		l.transition(StateAttempting)
		l.attempts++
		err := op(ctx)
		if err == nil {
			l.transition(StateSucceeded)
			if l.attempts > 1 {
				l.logger.InfoContext(ctx, "operation succeeded after retry",
					"operation", l.name,
					"attempts", l.attempts,
					"total_wait_time_ms", l.waited.Milliseconds())
			}
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			l.transition(StateExhausted)
			l.logger.WarnContext(ctx, "operation failed permanently",
				"operation", l.name,
				"attempts", l.attempts,
				"error", perm.err)
			return perm.err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			l.transition(StateCancelled)
			return fmt.Errorf("%s cancelled: %w", l.name, ctxErr)
		}

		delay, ok := l.backoff.NextBackOff()
		if !ok {
			l.transition(StateExhausted)
			l.logger.WarnContext(ctx, "retry backoff exhausted",
				"operation", l.name,
				"attempts", l.attempts,
				"total_wait_time_ms", l.waited.Milliseconds(),
				"error", err)
			return fmt.Errorf("%s: %w after %d attempts: %w", l.name, ErrExhausted, l.attempts, err)
		}

		l.transition(StateBackingOff)
		l.logger.DebugContext(ctx, "retry backoff wait",
			"operation", l.name,
			"attempt", l.attempts,
			"error", err,
			"retry_delay_ms", delay.Milliseconds())

		if sleepErr := l.sleep(ctx, delay); sleepErr != nil {
			l.transition(StateCancelled)
			return fmt.Errorf("%s cancelled: %w", l.name, sleepErr)
		}
		l.waited += delay
	}
}

// Policy creates fresh loops that share a backoff configuration.
type Policy struct {
	config  BackoffConfig
	clock   Clock
	sleep   Sleeper
	logger  *slog.Logger
	observe func(name string, from, to State)
}

// PolicyOption customizes a Policy.
type PolicyOption func(*Policy)

// WithClock sets the clock used to measure elapsed time.
func WithClock(c Clock) PolicyOption {
	return func(p *Policy) { p.clock = c }
}

// WithSleeper replaces the timer based sleeper.
func WithSleeper(s Sleeper) PolicyOption {
	return func(p *Policy) { p.sleep = s }
}

// WithObserver registers a callback for every state transition.
func WithObserver(fn func(name string, from, to State)) PolicyOption {
	return func(p *Policy) { p.observe = fn }
}

// NewPolicy creates a retry policy.
func NewPolicy(config BackoffConfig, logger *slog.Logger, opts ...PolicyOption) *Policy {
	p := &Policy{
		config: config,
		clock:  SystemClock,
		sleep:  ContextSleeper,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the backoff configuration of the policy.
func (p *Policy) Config() BackoffConfig { return p.config }

// NewLoop returns an idle loop with its own backoff state.
func (p *Policy) NewLoop(name string) *Loop {
	l := &Loop{
		name:    name,
		backoff: NewExponentialBackoff(p.config, p.clock),
		sleep:   p.sleep,
		logger:  p.logger,
		state:   StateIdle,
	}
	if p.observe != nil {
		l.observe = func(from, to State) { p.observe(name, from, to) }
	}
	return l
}

// Do runs op in a fresh loop.
func (p *Policy) Do(ctx context.Context, name string, op Operation) error {
	return p.NewLoop(name).Run(ctx, op)
}
