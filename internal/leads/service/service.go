package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"arq/internal/leads/device"
	"arq/internal/leads/metrics"
	"arq/internal/leads/models"
	"arq/internal/platform/privacy"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Analyzer,Notifier,ResourceResolver

// Store persists leads.
type Store interface {
	Create(ctx context.Context, lead *models.Lead) error
	List(ctx context.Context, kind models.Kind, limit int) ([]*models.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByKind(ctx context.Context) (models.Stats, error)
}

// Analyzer triages a lead's message.
type Analyzer interface {
	Analyze(ctx context.Context, lead *models.Lead) (*models.Analysis, error)
}

// Notifier sends the team alert and the submitter confirmation.
type Notifier interface {
	NotifyTeam(ctx context.Context, lead *models.Lead) error
	Confirm(ctx context.Context, lead *models.Lead) error
}

// ResourceResolver maps a downloadable resource slug to its file URL.
type ResourceResolver interface {
	ResolveDownload(ctx context.Context, slug string) (string, error)
}

// Defaults.
const (
	DefaultAnalysisTimeout     = 8 * time.Second
	DefaultNotificationTimeout = 30 * time.Second
)

// Service runs the lead submission flow: validate, analyse, persist, notify.
type Service struct {
	store     Store
	analyzer  Analyzer
	notifier  Notifier
	resources ResourceResolver
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time

	analysisTimeout     time.Duration
	notificationTimeout time.Duration

	background sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

func WithAnalyzer(a Analyzer) Option { return func(s *Service) { s.analyzer = a } }

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithResources(r ResourceResolver) Option { return func(s *Service) { s.resources = r } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

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

func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.analysisTimeout = d
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:               store,
		logger:              slog.Default(),
		now:                 time.Now,
		analysisTimeout:     DefaultAnalysisTimeout,
		notificationTimeout: DefaultNotificationTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores a validated submission. Analysis and notification failures
// are logged and never fail the request; persistence failures do.
func (s *Service) Submit(ctx context.Context, sub *models.Submission) (*models.SubmitResult, error) {
	if sub == nil || sub.Lead == nil || !sub.Lead.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid lead submission")
	}
	lead := sub.Lead
	lead.ID = uuid.New()
	lead.CreatedAt = s.now().UTC()
	lead.ClientIPPrefix = privacy.AnonymizeIP(sub.ClientIP)
	lead.Device = device.Summary(sub.UserAgent)

	result := &models.SubmitResult{ID: lead.ID, Kind: lead.Kind}

	if lead.Kind == models.KindDownload {
		fileURL, err := s.resolveDownload(ctx, lead.Resource)
		if err != nil {
			s.metrics.ObserveSubmission(string(lead.Kind), metrics.OutcomeFailed)
			return nil, err
		}
		result.FileURL = fileURL
	}

	if lead.Kind.Analyzed() {
		lead.Analysis = s.analyze(ctx, lead)
	}

	if err := s.store.Create(ctx, lead); err != nil {
		if lead.Kind == models.KindNewsletter && errors.Is(err, sentinel.ErrConflict) {
			s.logger.InfoContext(ctx, "duplicate newsletter sign-up",
				"email", privacy.MaskEmail(lead.Email),
			)
			s.metrics.ObserveSubmission(string(lead.Kind), metrics.OutcomeDuplicate)
			result.Duplicate = true
			return result, nil
		}
		s.metrics.ObserveSubmission(string(lead.Kind), metrics.OutcomeFailed)
		return nil, translateStoreError(err, "failed to store lead")
	}

	s.metrics.ObserveSubmission(string(lead.Kind), metrics.OutcomeStored)
	s.logger.InfoContext(ctx, "lead stored",
		"lead_id", lead.ID,
		"kind", lead.Kind,
		"email", privacy.MaskEmail(lead.Email),
	)
	s.notify(ctx, lead)
	return result, nil
}

func (s *Service) resolveDownload(ctx context.Context, slug string) (string, error) {
	if s.resources == nil {
		return "", dErrors.New(dErrors.CodeNotFound, "resource not found")
	}
	fileURL, err := s.resources.ResolveDownload(ctx, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "resource not found")
		}
		return "", translateStoreError(err, "failed to resolve resource")
	}
	return fileURL, nil
}

func (s *Service) analyze(ctx context.Context, lead *models.Lead) *models.Analysis {
	if s.analyzer == nil {
		return nil
	}
	actx, cancel := context.WithTimeout(ctx, s.analysisTimeout)
	defer cancel()

	start := s.now()
	analysis, err := s.analyzer.Analyze(actx, lead)
	s.metrics.ObserveAnalysis(s.now().Sub(start).Seconds(), err != nil)
	if err != nil {
		s.logger.WarnContext(ctx, "lead analysis failed",
			"kind", lead.Kind,
			"error", err,
		)
		return nil
	}
	return analysis
}

// notify sends emails in the background. The work outlives the request, so
// it runs on a context detached from request cancellation.
func (s *Service) notify(ctx context.Context, lead *models.Lead) {
	if s.notifier == nil {
		return
	}
	snapshot := *lead
	bg := context.WithoutCancel(ctx)
	s.background.Go(func() {
		nctx, cancel := context.WithTimeout(bg, s.notificationTimeout)
		defer cancel()

		if err := s.notifier.NotifyTeam(nctx, &snapshot); err != nil {
			s.metrics.ObserveNotificationFailure("team")
			s.logger.ErrorContext(nctx, "failed to send team notification",
				"lead_id", snapshot.ID,
				"error", err,
			)
		}
		if err := s.notifier.Confirm(nctx, &snapshot); err != nil {
			s.metrics.ObserveNotificationFailure("confirmation")
			s.logger.ErrorContext(nctx, "failed to send confirmation",
				"lead_id", snapshot.ID,
				"error", err,
			)
		}
	})
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

// List returns the latest leads, optionally of one kind.
func (s *Service) List(ctx context.Context, kind models.Kind) ([]*models.Lead, error) {
	if kind != "" && !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "kind must be one of contact, newsletter, partner, download")
	}
	leads, err := s.store.List(ctx, kind, models.ListLimit)
	if err != nil {
		return nil, translateStoreError(err, "failed to list leads")
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	return leads, nil
}

// Delete removes one lead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "lead not found")
		}
		return translateStoreError(err, "failed to delete lead")
	}
	return nil
}

// Stats counts leads per kind.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	stats, err := s.store.CountByKind(ctx)
	if err != nil {
		return nil, translateStoreError(err, "failed to count leads")
	}
	return stats, nil
}

func translateStoreError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "database not configured")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
