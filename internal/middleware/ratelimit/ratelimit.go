// Package ratelimit throttles requests per client address.
package ratelimit

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"

	"billing/internal/log"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	Window            time.Duration
	// KeyFunc identifies the client; defaults to httprate.KeyByIP.
	KeyFunc httprate.KeyFunc
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		Window:            time.Minute,
	}
}

// Limiter wraps an httprate limiter and counts rejected requests.
type Limiter struct {
	handler  func(http.Handler) http.Handler
	rejected int64
}

// New creates a limiter. A non-positive limit falls back to the defaults.
func New(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.KeyFunc == nil {
		config.KeyFunc = httprate.KeyByIP
	}

	l := &Limiter{}
	l.handler = httprate.Limit(config.RequestsPerMinute, config.Window,
		httprate.WithKeyFuncs(config.KeyFunc),
		httprate.WithLimitHandler(l.onLimit),
	)
	return l
}

// Middleware returns the HTTP middleware.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return l.handler(next)
}

func (l *Limiter) onLimit(w http.ResponseWriter, r *http.Request) {
	rejected := atomic.AddInt64(&l.rejected, 1)
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		"rejected_total", rejected)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": "Too many requests, please slow down",
	})
}
