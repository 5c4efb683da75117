package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"arq/internal/ai"
	"arq/internal/content/metrics"
	"arq/internal/content/models"
	"arq/internal/content/render"
	"arq/internal/content/seo"
	dErrors "arq/pkg/domain-errors"
	pkgstrings "arq/pkg/platform/strings"
	"arq/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Generator

// Store persists content items.
type Store interface {
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	FindBySlug(ctx context.Context, slug string) (*models.Item, error)
	List(ctx context.Context, f models.Filter) ([]*models.Item, error)
	CountByType(ctx context.Context) (models.Stats, error)
}

// Generator writes drafts.
type Generator interface {
	Complete(ctx context.Context, p ai.Prompt) (string, error)
}

// GenerateResult is a draft plus its SEO review.
type GenerateResult struct {
	Draft *models.Draft `json:"draft"`
	SEO   seo.Report    `json:"seo"`
}

// Service manages content.
type Service struct {
	store     Store
	generator Generator
	metrics   *metrics.Metrics
	renderer  *render.Markdown
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithGenerator(g Generator) Option { return func(s *Service) { s.generator = g } }

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

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, renderer: render.New(), logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errNotFound = dErrors.New(dErrors.CodeNotFound, "content not found")

// ListPublished returns the latest published items, optionally of one type.
func (s *Service) ListPublished(ctx context.Context, typ models.Type) ([]*models.Item, error) {
	return s.list(ctx, typ, true)
}

// ListAll includes drafts.
func (s *Service) ListAll(ctx context.Context, typ models.Type) ([]*models.Item, error) {
	return s.list(ctx, typ, false)
}

func (s *Service) list(ctx context.Context, typ models.Type, publishedOnly bool) ([]*models.Item, error) {
	if typ != "" && !typ.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "type must be one of blog, case_study, whitepaper, webinar")
	}
	items, err := s.store.List(ctx, models.Filter{Type: typ, PublishedOnly: publishedOnly, Limit: models.ListLimit})
	if err != nil {
		return nil, translateStoreError(err, "failed to list content")
	}
	if items == nil {
		items = []*models.Item{}
	}
	return items, nil
}

// GetPublished returns a published item by slug. Drafts are not found.
func (s *Service) GetPublished(ctx context.Context, slug string) (*models.Item, error) {
	item, err := s.store.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errNotFound
		}
		return nil, translateStoreError(err, "failed to load content")
	}
	if !item.Published {
		return nil, errNotFound
	}
	return s.rendered(item)
}

// Get returns any item by id with its body rendered, so drafts can be
// previewed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.rendered(item)
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errNotFound
		}
		return nil, translateStoreError(err, "failed to load content")
	}
	return item, nil
}

// rendered returns a copy of item with HTML filled from Body.
func (s *Service) rendered(item *models.Item) (*models.Item, error) {
	html, err := s.renderer.HTML(item.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render content")
	}
	out := *item
	out.HTML = html
	return &out, nil
}

func (s *Service) Create(ctx context.Context, req *models.ItemRequest) (*models.Item, error) {
	now := s.now().UTC()
	item := &models.Item{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	req.Apply(item)
	if err := s.store.Create(ctx, item); err != nil {
		return nil, translateWriteError(err, "failed to create content")
	}
	s.logger.InfoContext(ctx, "content created",
		"content_id", item.ID,
		"type", item.Type,
		"slug", item.Slug,
		"published", item.Published,
	)
	return item, nil
}

// Update replaces every editable field of an existing item.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *models.ItemRequest) (*models.Item, error) {
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(item)
	item.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, item); err != nil {
		return nil, translateWriteError(err, "failed to update content")
	}
	s.logger.InfoContext(ctx, "content updated",
		"content_id", item.ID,
		"slug", item.Slug,
		"published", item.Published,
	)
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return errNotFound
		}
		return translateStoreError(err, "failed to delete content")
	}
	s.logger.InfoContext(ctx, "content deleted", "content_id", id)
	return nil
}

// Stats counts items per type.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	stats, err := s.store.CountByType(ctx)
	if err != nil {
		return nil, translateStoreError(err, "failed to count content")
	}
	return stats, nil
}

// ResolveDownload returns the file URL of a published downloadable item.
// Unknown slugs, drafts and items without a file are sentinel.ErrNotFound.
func (s *Service) ResolveDownload(ctx context.Context, slug string) (string, error) {
	item, err := s.store.FindBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	if !item.Downloadable() {
		return "", sentinel.ErrNotFound
	}
	return item.FileURL, nil
}

// AnalyzeSEO scores a draft.
func (s *Service) AnalyzeSEO(in seo.Input) seo.Report {
	report := seo.Analyze(in)
	s.metrics.ObserveSEOScore(report.Score)
	return report
}

const generateSystemPrompt = `You write marketing content for a B2B website. Reply with a JSON object:
{"title": string (max 60 chars), "excerpt": string (max 160 chars), "body": string (Markdown with ## headings),
"keywords": array of strings}.`

// Generate asks the AI for a draft and reviews it. Nothing is stored.
func (s *Service) Generate(ctx context.Context, req *models.GenerateRequest) (*GenerateResult, error) {
	if s.generator == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "ai not configured")
	}
	raw, err := s.generator.Complete(ctx, ai.Prompt{
		System:      generateSystemPrompt,
		User:        generatePrompt(req),
		MaxTokens:   3000,
		Temperature: 0.7,
		JSON:        true,
	})
	if err != nil {
		s.metrics.ObserveGeneration(string(req.Type), metrics.OutcomeFailed)
		s.logger.WarnContext(ctx, "content generation failed", "type", req.Type, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "content generation failed")
	}
	draft, err := parseDraft(raw, req)
	if err != nil {
		s.metrics.ObserveGeneration(string(req.Type), metrics.OutcomeFailed)
		s.logger.WarnContext(ctx, "unusable content draft", "type", req.Type, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "content generation failed")
	}
	s.metrics.ObserveGeneration(string(req.Type), metrics.OutcomeGenerated)

	focus := ""
	if len(draft.Keywords) > 0 {
		focus = draft.Keywords[0]
	}
	return &GenerateResult{
		Draft: draft,
		SEO:   s.AnalyzeSEO(seo.Input{Title: draft.Title, Excerpt: draft.Excerpt, Body: draft.Body, Keyword: focus}),
	}, nil
}

func generatePrompt(req *models.GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\nTopic: %s\n", req.Type, req.Topic)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "Target keywords: %s\n", strings.Join(req.Keywords, ", "))
	}
	return b.String()
}

func parseDraft(raw string, req *models.GenerateRequest) (*models.Draft, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var d models.Draft
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" || strings.TrimSpace(d.Body) == "" {
		return nil, fmt.Errorf("draft is missing title or body")
	}
	d.Type = req.Type
	d.Slug = models.Slugify(d.Title)
	d.Excerpt = strings.TrimSpace(d.Excerpt)
	// Requested keywords lead so the first one is the focus keyword.
	d.Keywords = pkgstrings.DedupeAndTrimLower(append(append([]string{}, req.Keywords...), d.Keywords...))
	return &d, nil
}

func translateStoreError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "database not configured")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func translateWriteError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "slug already exists")
	case errors.Is(err, sentinel.ErrNotFound):
		return errNotFound
	default:
		return translateStoreError(err, msg)
	}
}
