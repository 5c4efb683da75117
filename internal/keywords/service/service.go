package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"arq/internal/keywords/metrics"
	"arq/internal/keywords/models"
	"arq/internal/platform/tracer"
	"arq/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Cache,Provider

// Cache stores research results by normalised keyword.
type Cache interface {
	Get(ctx context.Context, keyword string) (*models.Result, error)
	Put(ctx context.Context, result *models.Result) error
}

// Provider is the external research API.
type Provider interface {
	Research(ctx context.Context, keyword string) (*models.Result, error)
}

// Service answers keyword research from the cache when fresh and from the
// provider otherwise.
type Service struct {
	cache    Cache
	provider Provider
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(cache Cache, provider Provider, opts ...Option) *Service {
	s := &Service{
		cache:    cache,
		provider: provider,
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Research returns data for raw. A fresh cache entry is served without
// calling the provider. Cache failures are logged and never fail the call;
// provider failures do.
func (s *Service) Research(ctx context.Context, raw string) (_ *models.Result, err error) {
	keyword, err := models.Normalize(raw)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanKeywordLookup, tracer.String(tracer.AttrKeyword, keyword))
	defer func() { span.End(err) }()

	now := s.now().UTC()
	if cached := s.lookup(ctx, keyword, now); cached != nil {
		span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
		s.metrics.ObserveLookup(metrics.SourceCache)
		return cached, nil
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	result, err := s.provider.Research(ctx, keyword)
	if err != nil {
		s.metrics.ObserveLookup(metrics.SourceError)
		s.logger.WarnContext(ctx, "keyword research failed", "keyword", keyword, "error", err)
		return nil, err
	}
	s.metrics.ObserveLookup(metrics.SourceAPI)
	result.Keyword = keyword
	result.FetchedAt = now
	result.Cached = false
	if result.Related == nil {
		result.Related = []models.Related{}
	}

	if err := s.cache.Put(ctx, result); err != nil {
		s.metrics.ObserveCacheWriteFailure()
		s.logger.WarnContext(ctx, "failed to cache keyword result", "keyword", keyword, "error", err)
	}
	return result, nil
}

func (s *Service) lookup(ctx context.Context, keyword string, now time.Time) *models.Result {
	cached, err := s.cache.Get(ctx, keyword)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case errors.Is(err, sentinel.ErrUnavailable):
		s.logger.DebugContext(ctx, "keyword cache unavailable", "error", err)
		return nil
	default:
		s.logger.WarnContext(ctx, "keyword cache read failed", "keyword", keyword, "error", err)
		return nil
	}
	if !cached.Fresh(now) {
		return nil
	}
	cached.Cached = true
	return cached
}
