// Package ratelimit throttles requests per client address and endpoint with a
// sliding window log. State lives in process memory only.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Policy caps a key at Requests within any Window long interval.
type Policy struct {
	Requests int
	Window   time.Duration
}

func (p Policy) String() string {
	return fmt.Sprintf("%d per %s", p.Requests, p.Window)
}

// Result describes the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// windowState holds the request instants for one key inside the window.
// evicted is set by Cleanup once the state is no longer in the map.
type windowState struct {
	mu       sync.Mutex
	requests []time.Time
	evicted  bool
}

// SlidingWindowLimiter enforces a Policy independently for every key.
type SlidingWindowLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*windowState
}

// NewSlidingWindowLimiter creates a limiter for policy.
func NewSlidingWindowLimiter(policy Policy, now func() time.Time) (*SlidingWindowLimiter, error) {
	if policy.Requests <= 0 || policy.Window <= 0 {
		return nil, fmt.Errorf("invalid rate limit policy %s", policy)
	}
	if now == nil {
		now = time.Now
	}

	return &SlidingWindowLimiter{
		policy:  policy,
		now:     now,
		windows: make(map[string]*windowState),
	}, nil
}

// Allow records a request for key. When the key already used up its quota the
// request is not recorded and ErrRateLimitExceeded is returned.
func (l *SlidingWindowLimiter) Allow(key string) (Result, error) {
	now := l.now()
	ws := l.lockWindow(key)
	defer ws.mu.Unlock()

	ws.requests = dropBefore(ws.requests, now.Add(-l.policy.Window))

	if len(ws.requests) >= l.policy.Requests {
		retryAfter := ws.requests[0].Add(l.policy.Window).Sub(now)
		return Result{
			Allowed:    false,
			Limit:      l.policy.Requests,
			Remaining:  0,
			RetryAfter: retryAfter,
		}, ErrRateLimitExceeded
	}

	ws.requests = append(ws.requests, now)

	return Result{
		Allowed:   true,
		Limit:     l.policy.Requests,
		Remaining: l.policy.Requests - len(ws.requests),
	}, nil
}

// Policy returns the configured policy.
func (l *SlidingWindowLimiter) Policy() Policy {
	return l.policy
}

// Cleanup forgets keys that saw no request within the window.
func (l *SlidingWindowLimiter) Cleanup() int {
	cutoff := l.now().Add(-l.policy.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, ws := range l.windows {
		ws.mu.Lock()
		ws.requests = dropBefore(ws.requests, cutoff)
		idle := len(ws.requests) == 0
		ws.evicted = idle
		ws.mu.Unlock()

		if idle {
			delete(l.windows, key)
			removed++
		}
	}

	return removed
}

// Len reports the number of tracked keys.
func (l *SlidingWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.windows)
}

// lockWindow returns the live state for key with its mutex held. A state that
// Cleanup evicted between the map lookup and the lock is skipped so requests
// are never recorded on an orphan.
func (l *SlidingWindowLimiter) lockWindow(key string) *windowState {
	for {
		ws := l.window(key)
		ws.mu.Lock()
		if !ws.evicted {
			return ws
		}
		ws.mu.Unlock()
	}
}

func (l *SlidingWindowLimiter) window(key string) *windowState {
	l.mu.Lock()
	defer l.mu.Unlock()

	ws, ok := l.windows[key]
	if !ok {
		ws = &windowState{}
		l.windows[key] = ws
	}

	return ws
}

// dropBefore removes instants at or before cutoff. requests is ordered.
func dropBefore(requests []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return requests
	}

	return append(requests[:0], requests[i:]...)
}
