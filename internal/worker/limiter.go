package worker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/truthledger/internal/model"
)

// Limiter implements per-host rate limiting for outbound fetches.
// A nil *Limiter never blocks.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// NewLimiterFromConfig returns nil (unlimited) when neither a default rate
// nor a host override is configured. Without a default rate, hosts that have
// no override are not limited.
func NewLimiterFromConfig(cfg model.RateLimitConfig) *Limiter {
	if cfg.RequestsPerSecond <= 0 && len(cfg.Hosts) == 0 {
		return nil
	}

	defaultRate := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		defaultRate = rate.Inf
	}

	l := NewLimiter(float64(defaultRate), cfg.BurstSize)
	for _, h := range cfg.Hosts {
		if h.Host == "" || h.RequestsPerSecond <= 0 {
			continue
		}
		l.SetHostRate(h.Host, h.RequestsPerSecond, h.BurstSize)
	}
	return l
}

// Wait blocks until the host of rawURL may be contacted
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	if l == nil {
		return nil
	}

	host, err := extractHost(rawURL)
	if err != nil {
		return err
	}

	return l.getLimiter(host).Wait(ctx)
}

// WaitWithDelay waits for rate limit clearance and then an extra delay,
// used to honour a robots.txt crawl delay
func (l *Limiter) WaitWithDelay(ctx context.Context, rawURL string, additionalDelay time.Duration) error {
	if err := l.Wait(ctx, rawURL); err != nil {
		return err
	}

	if additionalDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(additionalDelay):
		}
	}

	return nil
}

// SetHostRate overrides the limit for a single host
func (l *Limiter) SetHostRate(host string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (l *Limiter) getLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter

	return limiter
}

func extractHost(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}
