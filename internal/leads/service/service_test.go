package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"arq/internal/leads/metrics"
	"arq/internal/leads/models"
	"arq/internal/leads/service/mocks"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/sentinel"
)

const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LeadServiceSuite covers the submission flow with mocked collaborators.
//
// Justification: persistence is the only step allowed to fail a submission;
// analysis and email must degrade silently.
type LeadServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	analyzer  *mocks.MockAnalyzer
	notifier  *mocks.MockNotifier
	resources *mocks.MockResourceResolver
	metrics   *metrics.Metrics
	now       time.Time
	service   *Service
}

func TestLeadServiceSuite(t *testing.T) {
	suite.Run(t, new(LeadServiceSuite))
}

func (s *LeadServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.analyzer = mocks.NewMockAnalyzer(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.resources = mocks.NewMockResourceResolver(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	s.service = New(s.store,
		WithAnalyzer(s.analyzer),
		WithNotifier(s.notifier),
		WithResources(s.resources),
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
		WithAnalysisTimeout(50*time.Millisecond),
	)
}

func (s *LeadServiceSuite) contact() *models.Submission {
	return &models.Submission{
		Lead: &models.Lead{
			Kind:    models.KindContact,
			Name:    "Ada",
			Email:   "ada@example.com",
			Message: "We want a demo",
		},
		ClientIP:  "203.0.113.42",
		UserAgent: chromeMac,
	}
}

func (s *LeadServiceSuite) TestSubmitContact_FullFlow() {
	analysis := &models.Analysis{Summary: "demo request", Intent: "sales", Priority: models.PriorityHigh, Score: 90}
	var stored *models.Lead

	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(analysis, nil)
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, l *models.Lead) error {
		stored = l
		return nil
	})
	s.notifier.EXPECT().NotifyTeam(gomock.Any(), gomock.Any()).Return(nil)
	s.notifier.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(nil)

	result, err := s.service.Submit(context.Background(), s.contact())
	s.Require().NoError(err)
	s.service.Wait()

	s.Require().NotNil(stored)
	s.Equal(result.ID, stored.ID)
	s.NotEqual(uuid.Nil, stored.ID)
	s.Equal(s.now, stored.CreatedAt)
	s.Equal("203.0.113.0/24", stored.ClientIPPrefix)
	s.Contains(stored.Device, "Chrome")
	s.Equal(analysis, stored.Analysis)
	s.False(result.Duplicate)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Submissions.WithLabelValues("contact", metrics.OutcomeStored)))
}

func (s *LeadServiceSuite) TestSubmit_AnalysisFailureIsNotFatal() {
	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ *models.Lead) (*models.Analysis, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, l *models.Lead) error {
		s.Nil(l.Analysis)
		return nil
	})
	s.notifier.EXPECT().NotifyTeam(gomock.Any(), gomock.Any()).Return(nil)
	s.notifier.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.service.Submit(context.Background(), s.contact())
	s.Require().NoError(err)
	s.service.Wait()
	s.Equal(1.0, promtest.ToFloat64(s.metrics.AnalysisFailures))
}

func (s *LeadServiceSuite) TestSubmit_NotificationFailureIsNotFatal() {
	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(nil, errors.New("ai down"))
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.notifier.EXPECT().NotifyTeam(gomock.Any(), gomock.Any()).Return(errors.New("smtp 500"))
	s.notifier.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(errors.New("smtp 500"))

	_, err := s.service.Submit(context.Background(), s.contact())
	s.Require().NoError(err)
	s.service.Wait()
	s.Equal(1.0, promtest.ToFloat64(s.metrics.NotificationFailures.WithLabelValues("team")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.NotificationFailures.WithLabelValues("confirmation")))
}

func (s *LeadServiceSuite) TestSubmit_NotificationOutlivesRequestContext() {
	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.notifier.EXPECT().NotifyTeam(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ *models.Lead) error {
		return ctx.Err()
	})
	s.notifier.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.service.Submit(ctx, s.contact())
	cancel()
	s.Require().NoError(err)
	s.service.Wait()
	s.Equal(0.0, promtest.ToFloat64(s.metrics.NotificationFailures.WithLabelValues("team")))
}

func (s *LeadServiceSuite) TestSubmit_PersistFailureFails() {
	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(nil, nil)

	s.Run("unavailable store is 503", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrUnavailable)
		_, err := s.service.Submit(context.Background(), s.contact())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.Run("other errors are internal", func() {
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
		_, err := s.service.Submit(context.Background(), s.contact())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
	s.service.Wait()
}

func (s *LeadServiceSuite) TestSubmitNewsletter_DuplicateIsIdempotent() {
	sub := &models.Submission{Lead: &models.Lead{Kind: models.KindNewsletter, Email: "ada@example.com"}}
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

	result, err := s.service.Submit(context.Background(), sub)
	s.Require().NoError(err)
	s.True(result.Duplicate)
	s.service.Wait()
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Submissions.WithLabelValues("newsletter", metrics.OutcomeDuplicate)))
}

func (s *LeadServiceSuite) TestSubmitDownload() {
	sub := func() *models.Submission {
		return &models.Submission{Lead: &models.Lead{Kind: models.KindDownload, Email: "ada@example.com", Resource: "seo-playbook"}}
	}

	s.Run("returns file url", func() {
		s.resources.EXPECT().ResolveDownload(gomock.Any(), "seo-playbook").Return("https://cdn.example.com/seo.pdf", nil)
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.notifier.EXPECT().NotifyTeam(gomock.Any(), gomock.Any()).Return(nil)
		s.notifier.EXPECT().Confirm(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.Submit(context.Background(), sub())
		s.Require().NoError(err)
		s.Equal("https://cdn.example.com/seo.pdf", result.FileURL)
		s.service.Wait()
	})

	s.Run("unknown resource is 404 and nothing is stored", func() {
		s.resources.EXPECT().ResolveDownload(gomock.Any(), "seo-playbook").Return("", sentinel.ErrNotFound)
		_, err := s.service.Submit(context.Background(), sub())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LeadServiceSuite) TestSubmit_InvalidKind() {
	_, err := s.service.Submit(context.Background(), &models.Submission{Lead: &models.Lead{Kind: "spam"}})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *LeadServiceSuite) TestListDeleteStats() {
	ctx := context.Background()

	s.Run("list validates kind", func() {
		_, err := s.service.List(ctx, "bogus")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("list returns empty slice", func() {
		s.store.EXPECT().List(gomock.Any(), models.KindPartner, models.ListLimit).Return(nil, nil)
		leads, err := s.service.List(ctx, models.KindPartner)
		s.Require().NoError(err)
		s.NotNil(leads)
		s.Empty(leads)
	})

	s.Run("delete missing is 404", func() {
		id := uuid.New()
		s.store.EXPECT().Delete(gomock.Any(), id).Return(sentinel.ErrNotFound)
		s.True(dErrors.HasCode(s.service.Delete(ctx, id), dErrors.CodeNotFound))
	})

	s.Run("stats", func() {
		s.store.EXPECT().CountByKind(gomock.Any()).Return(models.Stats{models.KindContact: 3}, nil)
		stats, err := s.service.Stats(ctx)
		s.Require().NoError(err)
		s.Equal(3, stats[models.KindContact])
	})
}
