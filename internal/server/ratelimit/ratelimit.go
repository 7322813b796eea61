// Package ratelimit provides per-client token bucket rate limiting for the
// pipeline API. Pipeline-triggering endpoints get a tighter budget than reads
// because every run fans out into LLM calls.
package ratelimit

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// tokenBucket refills at a steady rate up to its capacity.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillRate float64) *tokenBucket {
	return &tokenBucket{
		capacity:   float64(capacity),
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// take refills from elapsed time, then consumes one token if available.
// It also reports the remaining tokens and when the bucket is full again.
func (b *tokenBucket) take() (allowed bool, remaining int, resetTime time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*b.refillRate)
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		allowed = true
	}

	remaining = int(b.tokens)
	resetTime = now
	if b.tokens < b.capacity {
		secondsUntilFull := (b.capacity - b.tokens) / b.refillRate
		resetTime = now.Add(time.Duration(secondsUntilFull * float64(time.Second)))
	}
	return allowed, remaining, resetTime
}

// Info describes the outcome of a rate limit check.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	// RunLimit applies to pipeline-triggering requests, per client per Window.
	RunLimit int
	// ReadLimit applies to everything else, per client per Window.
	ReadLimit int
	Window    time.Duration
	// CleanupInterval controls how often idle client buckets are dropped.
	CleanupInterval time.Duration
}

// LoadConfig builds a Config from environment variables with safe defaults.
func LoadConfig() *Config {
	cfg := &Config{
		Enabled:         true,
		RunLimit:        10,
		ReadLimit:       300,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
	if v, err := strconv.ParseBool(os.Getenv("RATE_LIMIT_ENABLED")); err == nil {
		cfg.Enabled = v
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_RUN_PER_MINUTE")); err == nil && v > 0 {
		cfg.RunLimit = v
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_READ_PER_MINUTE")); err == nil && v > 0 {
		cfg.ReadLimit = v
	}
	return cfg
}

type clientBuckets struct {
	run        *tokenBucket
	read       *tokenBucket
	lastAccess time.Time
}

// Limiter manages per-client buckets.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientBuckets
	config  *Config

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a rate limiter with the given configuration. A nil
// config uses LoadConfig defaults.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = LoadConfig()
	}
	l := &Limiter{
		clients: make(map[string]*clientBuckets),
		config:  config,
	}
	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupTicker = time.NewTicker(config.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanupLoop()
	}
	return l
}

// Allow checks whether a request from clientID is within budget. run selects
// the pipeline-triggering budget instead of the read budget.
func (l *Limiter) Allow(clientID string, run bool) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	l.mu.Lock()
	client, ok := l.clients[clientID]
	if !ok {
		perSecond := l.config.Window.Seconds()
		client = &clientBuckets{
			run:  newTokenBucket(l.config.RunLimit, float64(l.config.RunLimit)/perSecond),
			read: newTokenBucket(l.config.ReadLimit, float64(l.config.ReadLimit)/perSecond),
		}
		l.clients[clientID] = client
	}
	client.lastAccess = time.Now()
	l.mu.Unlock()

	bucket, limit := client.read, l.config.ReadLimit
	if run {
		bucket, limit = client.run, l.config.RunLimit
	}

	allowed, remaining, resetTime := bucket.take()
	info := Info{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}
	if !allowed {
		info.RetryAfter = max(time.Until(resetTime), 0)
	}
	return allowed, info
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.dropIdleClients()
		case <-l.cleanupStop:
			return
		}
	}
}

// dropIdleClients removes buckets not used for over an hour.
func (l *Limiter) dropIdleClients() {
	cutoff := time.Now().Add(-1 * time.Hour)
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, client := range l.clients {
		if client.lastAccess.Before(cutoff) {
			delete(l.clients, id)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}
