// Package timeouts provides centralized timeout values for handler operations.
//
// These timeouts are used with context.WithTimeout for backend calls,
// session store I/O and health probes. Timeouts can be configured at
// startup using Configure(); otherwise the defaults are used.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Store: one session read or write
//   - Backend: one user action against the backend API, including the
//     refresh that follows it
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing    = 2 * time.Second
	DefaultStore   = 5 * time.Second
	DefaultBackend = 30 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping    = DefaultPing
	store   = DefaultStore
	backend = DefaultBackend
)

// Ping returns the timeout for health checks and connectivity verification.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Store returns the timeout for one session store operation.
func Store() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return store
}

// Backend returns the timeout for one user action against the backend.
func Backend() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping    time.Duration
	Store   time.Duration
	Backend time.Duration
}

// Configure sets custom timeout values. Zero values in the config are ignored.
// Call it during startup before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Store > 0 {
		store = cfg.Store
	}
	if cfg.Backend > 0 {
		backend = cfg.Backend
	}
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	store = DefaultStore
	backend = DefaultBackend
}

// ConfigureFromEnv reads BHANGAAR_TIMEOUT_PING, BHANGAAR_TIMEOUT_STORE and
// BHANGAAR_TIMEOUT_BACKEND (Go durations, e.g. "500ms", "2m"). Invalid or
// non-positive values are skipped. Returns how many were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0
	for env, dst := range map[string]*time.Duration{
		"BHANGAAR_TIMEOUT_PING":    &ping,
		"BHANGAAR_TIMEOUT_STORE":   &store,
		"BHANGAAR_TIMEOUT_BACKEND": &backend,
	} {
		if v := os.Getenv(env); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				*dst = d
				configured++
			}
		}
	}
	return configured
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Store: store, Backend: backend}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
// Example:
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Backend(), h.Log, "create pickup")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
