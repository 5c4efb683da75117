// Package requesttime pins one "now" per request so lead timestamps,
// content edits and log lines agree within a request.
package requesttime

import (
	"net/http"
	"time"

	"arq/pkg/requestcontext"
)

// Middleware stores time.Now() in the request context.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with an injectable clock, for tests.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
