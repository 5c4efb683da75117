// Package window is the process-local fixed-window counter store behind the
// rate limiter.
package window

import (
	"sync"
	"time"

	"arq/internal/ratelimit/models"
)

// fixedWindow is the state of one identifier: requests seen in the current
// window and when that window closes.
type fixedWindow struct {
	count   int
	resetAt time.Time
}

// expired reports whether the window closed strictly before now.
func (w *fixedWindow) expired(now time.Time) bool {
	return w.resetAt.Before(now)
}

// Store holds at most one window per identifier. One mutex covers the
// read-check-increment so concurrent checks on a key cannot over-admit.
//
// A client can be admitted up to 2x MaxRequests in a short span straddling
// a window boundary; windows are replaced, not slid.
type Store struct {
	mu      sync.RWMutex
	windows map[string]*fixedWindow
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check counts one request for identifier under policy and reports whether
// it is admitted. A rejected request does not change state.
func (s *Store) Check(identifier string, policy models.Policy) *models.RateLimitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[identifier]
	if !ok || w.expired(now) {
		w = &fixedWindow{count: 1, resetAt: now.Add(policy.Window)}
		s.windows[identifier] = w
		return &models.RateLimitResult{
			Allowed:   true,
			Limit:     policy.MaxRequests,
			Remaining: policy.MaxRequests - 1,
			ResetAt:   w.resetAt,
		}
	}

	if w.count >= policy.MaxRequests {
		return &models.RateLimitResult{
			Allowed:    false,
			Limit:      policy.MaxRequests,
			Remaining:  0,
			ResetAt:    w.resetAt,
			RetryAfter: retryAfterSeconds(w.resetAt.Sub(now)),
		}
	}

	w.count++
	return &models.RateLimitResult{
		Allowed:   true,
		Limit:     policy.MaxRequests,
		Remaining: policy.MaxRequests - w.count,
		ResetAt:   w.resetAt,
	}
}

// retryAfterSeconds rounds up to whole seconds, never below 1.
func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Sweep removes every window that has closed and returns how many it removed.
func (s *Store) Sweep() int {
	now := s.now()
	return s.deleteIfExpired(s.collectExpired(now), now)
}

// collectExpired scans under the read lock so checks on other keys are not
// blocked for the whole scan.
func (s *Store) collectExpired(now time.Time) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key, w := range s.windows {
		if w.expired(now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// deleteIfExpired re-checks each key under the write lock; a window that was
// replaced after the scan is kept.
func (s *Store) deleteIfExpired(keys []string, now time.Time) int {
	if len(keys) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if w, ok := s.windows[key]; ok && w.expired(now) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}
