package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arq/internal/ratelimit/config"
	"arq/internal/ratelimit/models"
	"arq/internal/ratelimit/service"
	"arq/internal/ratelimit/store/window"
	"arq/pkg/platform/middleware/metadata"
)

// =============================================================================
// Rate Limit Middleware Test Suite
// =============================================================================
// Justification: the middleware is the HTTP contract of the limiter: headers
// on every checked response, 429 with Retry-After on rejection, fail-open on
// limiter faults.

type MiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
	now    time.Time
	calls  int
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.calls = 0
}

type failingLimiter struct{}

func (failingLimiter) CheckRateLimit(context.Context, models.EndpointClass, string, string) (*models.RateLimitResult, error) {
	return nil, errors.New("store exploded")
}

func (s *MiddlewareSuite) final() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls++
		w.WriteHeader(http.StatusAccepted)
	})
}

func (s *MiddlewareSuite) chain(limiter RateLimiter, class models.EndpointClass) http.Handler {
	return metadata.NewMiddleware(nil).Handler(New(limiter, s.logger).RateLimit(class, "contact")(s.final()))
}

func (s *MiddlewareSuite) realLimiter() *service.Service {
	store := window.New(window.WithClock(func() time.Time { return s.now }))
	svc, err := service.New(store, service.WithLogger(s.logger))
	s.Require().NoError(err)
	return svc
}

func (s *MiddlewareSuite) post(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func (s *MiddlewareSuite) TestHeadersOnAllowedRequests() {
	h := s.chain(s.realLimiter(), models.ClassSensitive)

	w := s.post(h, "203.0.113.10:5555")

	s.Equal(http.StatusAccepted, w.Code)
	s.Equal("10", w.Header().Get("X-RateLimit-Limit"))
	s.Equal("9", w.Header().Get("X-RateLimit-Remaining"))
	s.Equal(strconv.FormatInt(s.now.Add(time.Hour).Unix(), 10), w.Header().Get("X-RateLimit-Reset"))
	s.Empty(w.Header().Get("Retry-After"))
}

func (s *MiddlewareSuite) TestRejectsOverLimit() {
	h := s.chain(s.realLimiter(), models.ClassSensitive)
	for range 10 {
		s.Equal(http.StatusAccepted, s.post(h, "203.0.113.10:5555").Code)
	}

	w := s.post(h, "203.0.113.10:5555")

	s.Equal(http.StatusTooManyRequests, w.Code)
	s.Equal(10, s.calls)
	s.Equal("0", w.Header().Get("X-RateLimit-Remaining"))
	s.Equal("3600", w.Header().Get("Retry-After"))

	var body models.RateLimitExceededResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("rate_limit_exceeded", body.Error)
	s.Equal(3600, body.RetryAfter)
}

func (s *MiddlewareSuite) TestClientsAreIsolated() {
	h := s.chain(s.realLimiter(), models.ClassAuth)
	for range 5 {
		s.post(h, "203.0.113.10:5555")
	}
	s.Equal(http.StatusTooManyRequests, s.post(h, "203.0.113.10:5555").Code)
	s.Equal(http.StatusAccepted, s.post(h, "203.0.113.11:5555").Code)
}

func (s *MiddlewareSuite) TestFailsOpenOnLimiterError() {
	h := s.chain(failingLimiter{}, models.ClassAPI)

	w := s.post(h, "203.0.113.10:5555")

	s.Equal(http.StatusAccepted, w.Code)
	s.Equal(1, s.calls)
	s.Empty(w.Header().Get("X-RateLimit-Limit"))
}

func (s *MiddlewareSuite) TestEndpointsSharingAClassKeepSeparateCounters() {
	store := window.New(window.WithClock(func() time.Time { return s.now }))
	cfg := config.DefaultConfig()
	s.Require().NoError(cfg.ApplyOverrides("sensitive=1/1h"))
	svc, err := service.New(store, service.WithConfig(cfg), service.WithLogger(s.logger))
	s.Require().NoError(err)

	sensitive := New(svc, s.logger).ForClass(models.ClassSensitive)
	contact := metadata.NewMiddleware(nil).Handler(sensitive("contact")(s.final()))
	partners := metadata.NewMiddleware(nil).Handler(sensitive("partners")(s.final()))

	s.Equal(http.StatusAccepted, s.post(contact, "203.0.113.10:5555").Code)
	s.Equal(http.StatusAccepted, s.post(partners, "203.0.113.10:5555").Code)
	s.Equal(http.StatusTooManyRequests, s.post(contact, "203.0.113.10:5555").Code)
	s.Equal(http.StatusTooManyRequests, s.post(partners, "203.0.113.10:5555").Code)
	s.Equal(2, s.calls)
}
