// Package service is the rate limiter the HTTP layer consults. The class
// selects the policy; the endpoint name and client identity form the store
// key, so two endpoints sharing a class keep separate counters.
//
// Usage:
//
//	svc, _ := service.New(window.New(), service.WithConfig(cfg))
//	result, _ := svc.CheckRateLimit(ctx, models.ClassSensitive, "contact", clientIP)
//	if !result.Allowed {
//	    // Return 429 Too Many Requests
//	}
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"arq/internal/platform/privacy"
	"arq/internal/ratelimit/config"
	"arq/internal/ratelimit/metrics"
	"arq/internal/ratelimit/models"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/requestcontext"
)

// WindowStore counts requests per identifier.
type WindowStore interface {
	Check(identifier string, policy models.Policy) *models.RateLimitResult
	Sweep() int
	Len() int
}

// Service enforces per-class, per-client fixed-window quotas.
// Safe for concurrent use by HTTP middleware.
type Service struct {
	store   WindowStore
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConfig overrides the default policy table.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates a limiter over store.
func New(store WindowStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("window store is required")
	}
	svc := &Service{
		store:  store,
		config: config.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckRateLimit counts one request from client to endpoint under the
// policy of class. An unknown class or a malformed endpoint name is a wiring
// mistake and is reported as an internal error rather than silently allowed.
func (s *Service) CheckRateLimit(ctx context.Context, class models.EndpointClass, endpoint, client string) (*models.RateLimitResult, error) {
	policy, ok := s.config.Policy(class)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "no rate limit policy for class "+string(class))
	}
	if !models.ValidEndpoint(endpoint) {
		return nil, dErrors.New(dErrors.CodeInternal, "invalid rate limit endpoint name "+strconv.Quote(endpoint))
	}

	result := s.store.Check(models.NewIdentifier(endpoint, client), policy)

	if s.metrics != nil {
		s.metrics.ObserveDecision(string(class), result.Allowed)
	}
	if !result.Allowed {
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"class", string(class),
			"endpoint", endpoint,
			"client_ip_prefix", privacy.AnonymizeIP(client),
			"limit", result.Limit,
			"retry_after", result.RetryAfter,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return result, nil
}

// Policies returns the effective policy table.
func (s *Service) Policies() *config.Config {
	return s.config
}

// Sweep drops expired windows; see workers/sweep.
func (s *Service) Sweep() (removed, remaining int) {
	removed = s.store.Sweep()
	return removed, s.store.Len()
}
