// Package resilience keeps a session usable when a speech backend degrades.
//
// A failover wraps a primary speech provider (whisper, coqui) together with a
// console fallback. After a run of consecutive primary failures the failover
// demotes to the fallback — the session effectively switches to text mode —
// and periodically probes the primary again after a cooldown. Cancellation
// and no-speech results never count as failures; only backend errors do.
package resilience

import (
	"log/slog"
	"sync"
	"time"
)

const (
	defaultMaxFailures = 3
	defaultCooldown    = time.Minute
)

// Option configures a failover wrapper.
type Option func(*settings)

type settings struct {
	maxFailures int
	cooldown    time.Duration
	log         *slog.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		maxFailures: defaultMaxFailures,
		cooldown:    defaultCooldown,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithMaxFailures sets how many consecutive primary failures trigger
// demotion. Values below one are ignored.
func WithMaxFailures(n int) Option {
	return func(s *settings) {
		if n >= 1 {
			s.maxFailures = n
		}
	}
}

// WithCooldown sets how long the failover stays demoted before probing the
// primary again. Non-positive values are ignored.
func WithCooldown(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

// WithLogger sets the logger used for demotion and recovery messages.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// gate tracks the primary's recent failure history and decides per call
// whether the primary should be tried. Safe for concurrent use.
type gate struct {
	mu        sync.Mutex
	failures  int
	demoted   bool
	demotedAt time.Time
}

// allowPrimary reports whether the next call should go to the primary.
// While demoted it returns true once per elapsed cooldown, as a probe.
func (g *gate) allowPrimary(cooldown time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.demoted {
		return true
	}
	if time.Since(g.demotedAt) >= cooldown {
		// Probe. On failure recordFailure re-arms the cooldown.
		g.demotedAt = time.Now()
		return true
	}
	return false
}

// recordSuccess resets the failure run and restores the primary.
// Returns true when this call recovered a demoted primary.
func (g *gate) recordSuccess() (recovered bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	recovered = g.demoted
	g.failures = 0
	g.demoted = false
	return recovered
}

// recordFailure counts one primary failure. Returns true when this failure
// crossed the threshold and demoted the primary.
func (g *gate) recordFailure(maxFailures int) (demoted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures++
	if g.demoted || g.failures < maxFailures {
		return false
	}
	g.demoted = true
	g.demotedAt = time.Now()
	return true
}
