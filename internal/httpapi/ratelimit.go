// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package httpapi

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rate limiting defaults for the credential endpoints.
const (
	DefaultBurst           = 10
	DefaultRate            = 5.0
	DefaultCleanupInterval = 5 * time.Minute
	DefaultClientMaxAge    = 30 * time.Minute
)

// RateLimiterConfig configures a RateLimiter. Zero values take defaults.
type RateLimiterConfig struct {
	Burst           int     // bucket size per client
	Rate            float64 // tokens refilled per second
	CleanupInterval time.Duration
	ClientMaxAge    time.Duration // idle clients older than this are forgotten
	Registerer      prometheus.Registerer
	Clock           func() time.Time
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter is a per-client token bucket. It is safe for concurrent use
// and runs one cleanup goroutine until Close.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	burst   float64
	rate    float64
	maxAge  time.Duration
	now     func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	gauge prometheus.Gauge
}

// NewRateLimiter creates a limiter and starts its cleanup loop.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRate
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.ClientMaxAge <= 0 {
		cfg.ClientMaxAge = DefaultClientMaxAge
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	rl := &RateLimiter{
		clients: make(map[string]*bucket),
		burst:   float64(cfg.Burst),
		rate:    cfg.Rate,
		maxAge:  cfg.ClientMaxAge,
		now:     cfg.Clock,
		stop:    make(chan struct{}),
	}
	if cfg.Registerer != nil {
		rl.gauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventoryauth_ratelimiter_clients",
			Help: "Clients currently tracked by the credential endpoint rate limiter",
		})
		cfg.Registerer.MustRegister(rl.gauge)
	}

	rl.wg.Add(1)
	go rl.cleanupLoop(cfg.CleanupInterval)
	return rl
}

// Allow takes one token from key's bucket. When none is left it returns
// false and how long until the next token.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[key]
	if !ok {
		b = &bucket{tokens: rl.burst, lastCheck: now}
		rl.clients[key] = b
		rl.updateGaugeLocked()
	}

	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.lastCheck).Seconds()*rl.rate)
	b.lastCheck = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))
	return false, wait
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Cleanup forgets clients idle for longer than maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.now().Add(-maxAge)
	for key, b := range rl.clients {
		if b.lastCheck.Before(threshold) {
			delete(rl.clients, key)
		}
	}
	rl.updateGaugeLocked()
}

// updateGaugeLocked publishes the client count. rl.mu must be held.
func (rl *RateLimiter) updateGaugeLocked() {
	if rl.gauge != nil {
		rl.gauge.Set(float64(len(rl.clients)))
	}
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.Cleanup(rl.maxAge)
		}
	}
}

// Close stops the cleanup goroutine and waits for it. It may be called more
// than once.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
	rl.wg.Wait()
}
