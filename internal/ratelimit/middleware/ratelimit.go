package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"arq/internal/ratelimit/models"
	"arq/pkg/platform/httputil"
	"arq/pkg/requestcontext"
)

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, class models.EndpointClass, endpoint, client string) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter RateLimiter
	logger  *slog.Logger
}

func New(limiter RateLimiter, logger *slog.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		logger:  logger,
	}
}

// RateLimit counts requests to endpoint per resolved client under the policy
// of class. The client IP must already be in the context (metadata
// middleware); this layer never reads forwarding headers.
func (m *Middleware) RateLimit(class models.EndpointClass, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			result, err := m.limiter.CheckRateLimit(ctx, class, endpoint, requestcontext.ClientIP(ctx))
			if err != nil {
				// Fail open: a limiter fault must not take the site down.
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"class", string(class),
					"endpoint", endpoint,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ForClass binds class so route tables only name the endpoint:
//
//	sensitive := m.ForClass(models.ClassSensitive)
//	r.With(sensitive("contact")).Post("/contact", h.HandleContact)
func (m *Middleware) ForClass(class models.EndpointClass) func(endpoint string) func(http.Handler) http.Handler {
	return func(endpoint string) func(http.Handler) http.Handler {
		return m.RateLimit(class, endpoint)
	}
}

// addRateLimitHeaders sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset (unix seconds).
func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
