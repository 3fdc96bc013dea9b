package ratelimit

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry owns one limiter per protected endpoint and a janitor that prunes
// idle keys. It is started and stopped with the process.
type Registry struct {
	logger   *zerolog.Logger
	limiters map[string]*SlidingWindowLimiter
	interval time.Duration

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRegistry creates limiters for every endpoint in policies.
func NewRegistry(logger *zerolog.Logger, policies map[string]Policy, now func() time.Time) (*Registry, error) {
	limiters := make(map[string]*SlidingWindowLimiter, len(policies))
	interval := time.Minute

	for endpoint, policy := range policies {
		limiter, err := NewSlidingWindowLimiter(policy, now)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", endpoint, err)
		}
		limiters[endpoint] = limiter

		if policy.Window < interval {
			interval = policy.Window
		}
	}

	return &Registry{
		logger:   logger,
		limiters: limiters,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Allow checks the limiter of endpoint for the client address addr. Endpoints
// without a policy are never limited.
func (r *Registry) Allow(endpoint, addr string) (Result, error) {
	limiter, ok := r.limiters[endpoint]
	if !ok {
		return Result{Allowed: true}, nil
	}

	return limiter.Allow(Key(endpoint, addr))
}

// Policy returns the policy of endpoint.
func (r *Registry) Policy(endpoint string) (Policy, bool) {
	limiter, ok := r.limiters[endpoint]
	if !ok {
		return Policy{}, false
	}

	return limiter.Policy(), true
}

// Start runs the janitor until Stop is called.
func (r *Registry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	go func() {
		defer close(r.doneCh)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for endpoint, limiter := range r.limiters {
					if n := limiter.Cleanup(); n > 0 {
						r.logger.Debug().Str("endpoint", endpoint).Int("removed", n).Msg("pruned idle rate limit windows")
					}
				}
			case <-r.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the janitor and waits for it to exit.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)

		r.mu.Lock()
		started := r.started
		r.mu.Unlock()
		if started {
			<-r.doneCh
		}
	})
}

// Key builds the limiter key for an endpoint and client address.
func Key(endpoint, addr string) string {
	return endpoint + "|" + addr
}

// ClientAddr strips the port from a remote address.
func ClientAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}

	return host
}
