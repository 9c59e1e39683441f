// Package ratelimit throttles requests per host. The browser actions use it
// to pace navigations against a live site; the site fixture uses the HTTP
// middleware to answer form floods with 429 the way a real deployment would.
package ratelimit

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines the rate limiting configuration.
type Config struct {
	RemoteRPS       float64       // Requests per second for non-loopback hosts
	RemoteBurst     int           // Burst size for non-loopback hosts
	LocalRPS        float64       // Requests per second for loopback hosts
	LocalBurst      int           // Burst size for loopback hosts
	CleanupInterval time.Duration // How often to clean up idle limiters
}

// DefaultConfig keeps live-site navigation polite and leaves the local
// fixture effectively unthrottled.
var DefaultConfig = Config{
	RemoteRPS:       2,
	RemoteBurst:     4,
	LocalRPS:        1000,
	LocalBurst:      2000,
	CleanupInterval: time.Hour,
}

// rateLimiterEntry holds a rate limiter and tracks its last usage.
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// RateLimiter manages per-host rate limiting.
type RateLimiter struct {
	limiters map[string]*rateLimiterEntry
	mu       sync.Mutex
	config   Config

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRateLimiter creates a new rate limiter with the given configuration.
// It starts a background goroutine for cleanup.
func NewRateLimiter(config Config) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig.CleanupInterval
	}
	rl := &RateLimiter{
		limiters: make(map[string]*rateLimiterEntry),
		config:   config,
		stopCh:   make(chan struct{}),
	}

	rl.wg.Add(1)
	go rl.cleanupLoop()

	return rl
}

// Allow reports whether a request to host may proceed now.
func (rl *RateLimiter) Allow(host string) bool {
	return rl.GetLimiter(host).Allow()
}

// Wait blocks until a request to host may proceed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	return rl.GetLimiter(host).Wait(ctx)
}

// GetLimiter returns the rate limiter for host, creating one if necessary.
// Loopback hosts get the local limits.
func (rl *RateLimiter) GetLimiter(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[host]; ok {
		entry.lastUsed = time.Now()
		return entry.limiter
	}

	rps, burst := rl.config.RemoteRPS, rl.config.RemoteBurst
	if IsLoopback(host) {
		rps, burst = rl.config.LocalRPS, rl.config.LocalBurst
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	rl.limiters[host] = &rateLimiterEntry{
		limiter:  limiter,
		lastUsed: time.Now(),
	}
	return limiter
}

// IsLoopback reports whether host (optionally with a port) names the local
// machine.
func IsLoopback(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Cleanup removes rate limiters that have been idle for longer than the cleanup interval.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.config.CleanupInterval)
	for host, entry := range rl.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(rl.limiters, host)
		}
	}
}

func (rl *RateLimiter) cleanupLoop() {
	defer rl.wg.Done()

	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine and waits for it to finish. It is safe
// to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	rl.wg.Wait()
}

// Len returns the number of active rate limiters.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
