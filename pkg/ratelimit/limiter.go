package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"igserve/pkg/config"
)

// Limiter decides whether a caller identified by key may proceed
type Limiter interface {
	Allow(key string) bool
}

// Config configures a KeyedLimiter
type Config struct {
	RequestsPerMinute int
	Burst             int
	CleanupInterval   time.Duration
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// KeyedLimiter keeps one token bucket per key. Keys idle for two cleanup
// intervals are evicted by a background goroutine; call Stop to end it.
type KeyedLimiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a KeyedLimiter and starts its cleanup loop
func New(cfg Config) *KeyedLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	l := &KeyedLimiter{
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / 60.0),
		burst:   cfg.Burst,
		ttl:     2 * cfg.CleanupInterval,
		entries: make(map[string]*entry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go l.cleanupLoop(cfg.CleanupInterval)

	return l
}

// NewFromConfig creates a limiter from the rate_limit config section.
// It returns nil when throttling is disabled.
func NewFromConfig(cfg *config.RateLimitConfig) *KeyedLimiter {
	if cfg.RequestsPerMinute <= 0 {
		return nil
	}
	return New(Config{RequestsPerMinute: cfg.RequestsPerMinute, Burst: cfg.BurstSize})
}

// Allow consumes a token for key if one is available
func (l *KeyedLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// RetryAfter estimates how long a rejected caller should wait for one token
func (l *KeyedLimiter) RetryAfter() time.Duration {
	if l.limit <= 0 {
		return time.Minute
	}
	seconds := math.Ceil(1.0 / float64(l.limit))
	return time.Duration(math.Max(seconds, 1)) * time.Second
}

// Len returns the number of tracked keys
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Stop ends the cleanup loop
func (l *KeyedLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *KeyedLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastAccess = l.now()
	return e.limiter
}

func (l *KeyedLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

func (l *KeyedLimiter) cleanup() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if now.Sub(e.lastAccess) > l.ttl {
			delete(l.entries, key)
		}
	}
}
