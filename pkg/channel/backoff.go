package channel

import (
	"math/rand"
	"sync"
	"time"
)

// Redial defaults.
const (
	// DefaultInitialBackoff is the delay before the first redial.
	DefaultInitialBackoff = 1 * time.Second

	// DefaultMaxBackoff caps the redial delay.
	DefaultMaxBackoff = 60 * time.Second

	// DefaultBackoffMultiplier grows the delay after each failed redial.
	DefaultBackoffMultiplier = 2.0

	// DefaultJitter is the maximum jitter as a fraction of the delay.
	DefaultJitter = 0.25
)

// BackoffConfig tunes redial delays. Zero values use the defaults.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	// Jitter adds up to this fraction of the delay. Negative disables it.
	Jitter float64
}

// Backoff computes exponential redial delays with jitter.
type Backoff struct {
	mu sync.Mutex

	current  time.Duration
	config   BackoffConfig
	attempts int
	rng      *rand.Rand
}

// NewBackoff creates a backoff calculator. Unset fields of config take
// their defaults.
func NewBackoff(config BackoffConfig) *Backoff {
	if config.Initial <= 0 {
		config.Initial = DefaultInitialBackoff
	}
	if config.Max <= 0 {
		config.Max = DefaultMaxBackoff
	}
	if config.Max < config.Initial {
		config.Max = config.Initial
	}
	if config.Multiplier <= 1 {
		config.Multiplier = DefaultBackoffMultiplier
	}
	switch {
	case config.Jitter < 0:
		config.Jitter = 0
	case config.Jitter == 0:
		config.Jitter = DefaultJitter
	}

	return &Backoff{
		current: config.Initial,
		config:  config,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next delay with jitter and advances the backoff.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.current
	if b.config.Jitter > 0 {
		delay += time.Duration(float64(delay) * b.config.Jitter * b.rng.Float64())
	}

	b.attempts++
	b.current = min(time.Duration(float64(b.current)*b.config.Multiplier), b.config.Max)
	return delay
}

// Reset returns to the initial delay. Call it after a successful redial.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.config.Initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current returns the next base delay without jitter.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
