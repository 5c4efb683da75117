package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"arq/internal/content/models"
	"arq/internal/content/seo"
	"arq/internal/content/service"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/httputil"
	"arq/pkg/platform/middleware/admin"
	"arq/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the content API.
type Service interface {
	ListPublished(ctx context.Context, typ models.Type) ([]*models.Item, error)
	ListAll(ctx context.Context, typ models.Type) ([]*models.Item, error)
	GetPublished(ctx context.Context, slug string) (*models.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Create(ctx context.Context, req *models.ItemRequest) (*models.Item, error)
	Update(ctx context.Context, id uuid.UUID, req *models.ItemRequest) (*models.Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Generate(ctx context.Context, req *models.GenerateRequest) (*service.GenerateResult, error)
	AnalyzeSEO(in seo.Input) seo.Report
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the published-content reads, each behind its own
// rate-limit counter.
func (h *Handler) RegisterPublic(r chi.Router, limit func(endpoint string) func(http.Handler) http.Handler) {
	r.With(limit("content_list")).Get("/content", h.HandleListPublished)
	r.With(limit("content_detail")).Get("/content/{slug}", h.HandleGetPublished)
}

// RegisterAdmin mounts content management under the admin API.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/content", h.HandleListAll)
	r.Post("/content", h.HandleCreate)
	r.Post("/content/generate", h.HandleGenerate)
	r.Get("/content/{id}", h.HandleGet)
	r.Put("/content/{id}", h.HandleUpdate)
	r.Delete("/content/{id}", h.HandleDelete)
	r.Post("/seo/analyze", h.HandleAnalyzeSEO)
}

// ItemListResponse is returned by the content listings.
type ItemListResponse struct {
	Items []*models.Item `json:"items"`
	Count int            `json:"count"`
}

func (h *Handler) HandleListPublished(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListPublished)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListAll)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, list func(context.Context, models.Type) ([]*models.Item, error)) {
	ctx := r.Context()
	items, err := list(ctx, models.Type(r.URL.Query().Get("type")))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list content",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ItemListResponse{Items: items, Count: len(items)})
}

// HandleGetPublished implements GET /api/content/{slug}.
func (h *Handler) HandleGetPublished(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := h.service.GetPublished(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.logger.DebugContext(ctx, "content lookup failed",
			"slug", chi.URLParam(r, "slug"),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	item, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[models.ItemRequest](w, r, h.logger)
	if !ok {
		return
	}
	item, err := h.service.Create(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create content",
			"slug", req.Slug,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "content created by admin",
		"content_id", item.ID,
		"admin", admin.GetUsername(ctx),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ItemRequest](w, r, h.logger)
	if !ok {
		return
	}
	item, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update content",
			"content_id", id,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := contentID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "failed to delete content",
			"content_id", id,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "content deleted by admin",
		"content_id", id,
		"admin", admin.GetUsername(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGenerate implements POST /admin/api/content/generate. The draft is
// returned for review and not stored.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[models.GenerateRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.service.Generate(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "content generation failed",
			"type", req.Type,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleAnalyzeSEO implements POST /admin/api/seo/analyze.
func (h *Handler) HandleAnalyzeSEO(w http.ResponseWriter, r *http.Request) {
	in, ok := httputil.DecodeAndPrepare[seo.Input](w, r, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.AnalyzeSEO(*in))
}

func contentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid content id"))
		return uuid.Nil, false
	}
	return id, true
}
