package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/platform/ratelimit"
	"github.com/phrazzld/tasks-api/internal/redact"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error)
}

// RateLimitMiddleware caps requests per authenticated person, or per client
// address for anonymous requests.
type RateLimitMiddleware struct {
	limiter Limiter
	limit   int
	window  time.Duration
}

// NewRateLimitMiddleware creates a RateLimitMiddleware allowing limit
// requests per window.
func NewRateLimitMiddleware(limiter Limiter, limit int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, limit: limit, window: window}
}

// Limit rejects requests over the limit with 429. When the limiter itself
// fails the request is let through.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := m.limiter.Allow(r.Context(), rateLimitKey(r), m.limit, m.window)
		if err != nil {
			logger.FromContext(r.Context()).Warn("rate limiter unavailable, allowing request",
				"error", redact.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retry := int(time.Until(res.ResetAt).Seconds())
			if retry < 1 {
				retry = 1
			}
			h.Set("Retry-After", strconv.Itoa(retry))
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func rateLimitKey(r *http.Request) string {
	if p, ok := shared.PersonFromContext(r.Context()); ok {
		return "person:" + p.EntityID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
