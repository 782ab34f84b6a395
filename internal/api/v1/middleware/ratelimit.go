package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/translatex/relay/internal/config"
	"github.com/translatex/relay/pkg/httpext"
	"github.com/translatex/relay/pkg/ratelimit"
)

var (
	limitersMu sync.Mutex
	limiters   []*ratelimit.Limiter
)

func RateLimit(limitKey string) func(http.Handler) http.Handler {
	cfg := config.GetRateLimitConfig(limitKey)
	limiter := ratelimit.NewLimiter(cfg.Window, cfg.MaxHits)

	limitersMu.Lock()
	limiters = append(limiters, limiter)
	limitersMu.Unlock()

	return rateLimit(limitKey, cfg, limiter)
}

// PruneRateLimiters drops client buckets idle for longer than maxIdle across every
// limiter created by RateLimit
func PruneRateLimiters(maxIdle time.Duration) int {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	pruned := 0
	for _, l := range limiters {
		pruned += l.Prune(maxIdle)
	}
	return pruned
}

func rateLimit(limitKey string, cfg config.RateLimitConfig, limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			key := clientKey(r)
			if !limiter.Allow(key) {
				log.Warn().Str("client", key).Str("limit", limitKey).Msg("Rate limit exceeded")
				httpext.JsonError(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller: the session when one is attached, otherwise
// the first X-Forwarded-For hop or the remote address
func clientKey(r *http.Request) string {
	if sessionID := SessionIDFromContext(r.Context()); sessionID != "" {
		return "session:" + sessionID
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
