// ABOUTME: Exponential backoff generator with jitter and an elapsed-time ceiling
// ABOUTME: One instance backs exactly one logical retry loop
package retry

import (
	"math/rand/v2"
	"time"
)

// BackoffConfig describes an exponential backoff policy.
type BackoffConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	MaxElapsedTime      time.Duration // non-positive falls back to the default ceiling
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultBackoffConfig returns the policy used for fetcher sessions and page fetches.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         60 * time.Second,
		MaxElapsedTime:      60 * time.Second,
		Multiplier:          1.5,
		RandomizationFactor: 0.5,
	}
}

// Clock abstracts time so retry loops can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// BackOff yields successive delays until it reports exhaustion.
type BackOff interface {
	NextBackOff() (time.Duration, bool)
	Reset()
}

// ExponentialBackoff grows its interval by Multiplier after every call and
// randomizes each returned delay by +/- RandomizationFactor.
type ExponentialBackoff struct {
	config  BackoffConfig
	clock   Clock
	random  func() float64
	current time.Duration
	start   time.Time
}

// NewExponentialBackoff creates a backoff that starts measuring elapsed time immediately.
func NewExponentialBackoff(config BackoffConfig, clock Clock) *ExponentialBackoff {
	if clock == nil {
		clock = SystemClock
	}
	if config.MaxElapsedTime <= 0 {
		config.MaxElapsedTime = DefaultBackoffConfig().MaxElapsedTime
	}
	b := &ExponentialBackoff{
		config: config,
		clock:  clock,
		random: rand.Float64,
	}
	b.Reset()
	return b
}

// Reset restarts the elapsed-time measurement and the interval growth.
func (b *ExponentialBackoff) Reset() {
	b.current = b.config.InitialInterval
	b.start = b.clock.Now()
}

// Elapsed returns the time since the backoff was created or last reset.
func (b *ExponentialBackoff) Elapsed() time.Duration {
	return b.clock.Now().Sub(b.start)
}

// NextBackOff returns the next delay, or false once the elapsed time has
// reached MaxElapsedTime. A delay never extends past the ceiling.
func (b *ExponentialBackoff) NextBackOff() (time.Duration, bool) {
	elapsed := b.Elapsed()
	ceiling := b.config.MaxElapsedTime
	if elapsed >= ceiling {
		return 0, false
	}

	delay := b.randomize(b.current)
	b.grow()

	if elapsed+delay > ceiling {
		delay = ceiling - elapsed
	}
	return delay, true
}

func (b *ExponentialBackoff) randomize(interval time.Duration) time.Duration {
	f := b.config.RandomizationFactor
	if f <= 0 {
		return interval
	}
	delta := f * float64(interval)
	lo := float64(interval) - delta
	hi := float64(interval) + delta
	return time.Duration(lo + b.random()*(hi-lo+1))
}

func (b *ExponentialBackoff) grow() {
	maxInterval := b.config.MaxInterval
	if maxInterval > 0 && float64(b.current) >= float64(maxInterval)/b.config.Multiplier {
		b.current = maxInterval
		return
	}
	b.current = time.Duration(float64(b.current) * b.config.Multiplier)
}
