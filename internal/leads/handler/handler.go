package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"arq/internal/leads/export"
	"arq/internal/leads/models"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/httputil"
	"arq/pkg/platform/middleware/admin"
	"arq/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the lead capture and admin API.
type Service interface {
	Submit(ctx context.Context, sub *models.Submission) (*models.SubmitResult, error)
	List(ctx context.Context, kind models.Kind) ([]*models.Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
	now     func() time.Time
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger, now: time.Now}
}

// RegisterAdmin mounts the lead management routes under the admin API.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/leads", h.HandleList)
	r.Get("/leads/export", h.HandleExport)
	r.Delete("/leads/{id}", h.HandleDelete)
}

// HandleContact implements POST /api/contact.
func (h *Handler) HandleContact(w http.ResponseWriter, r *http.Request) {
	handleSubmit(h, w, r, (*models.ContactRequest).Lead)
}

// HandlePartner implements POST /api/partners.
func (h *Handler) HandlePartner(w http.ResponseWriter, r *http.Request) {
	handleSubmit(h, w, r, (*models.PartnerRequest).Lead)
}

// HandleNewsletter implements POST /api/newsletter. A repeated sign-up
// answers 200 with duplicate=true instead of 201.
func (h *Handler) HandleNewsletter(w http.ResponseWriter, r *http.Request) {
	handleSubmit(h, w, r, (*models.NewsletterRequest).Lead)
}

// HandleDownload implements POST /api/downloads and returns the file URL.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	handleSubmit(h, w, r, (*models.DownloadRequest).Lead)
}

func handleSubmit[T any](h *Handler, w http.ResponseWriter, r *http.Request, toLead func(*T) *models.Lead) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[T](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, &models.Submission{
		Lead:      toLead(req),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "lead submission failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, result)
}

// LeadListResponse is returned by GET /admin/api/leads.
type LeadListResponse struct {
	Leads []*models.Lead `json:"leads"`
	Count int            `json:"count"`
}

// HandleList implements GET /admin/api/leads?kind=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	leads, err := h.service.List(ctx, models.Kind(r.URL.Query().Get("kind")))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list leads",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &LeadListResponse{Leads: leads, Count: len(leads)})
}

// HandleExport implements GET /admin/api/leads/export?kind= as a CSV attachment.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	kind := models.Kind(r.URL.Query().Get("kind"))

	leads, err := h.service.List(ctx, kind)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to export leads",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(kind, h.now())+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, leads); err != nil {
		// Headers are sent; the truncated body is all we can do.
		h.logger.ErrorContext(ctx, "failed to write lead export",
			"error", err,
			"request_id", requestID,
		)
		return
	}
	h.logger.InfoContext(ctx, "leads exported",
		"count", len(leads),
		"kind", kind,
		"admin", admin.GetUsername(ctx),
		"request_id", requestID,
	)
}

// HandleDelete implements DELETE /admin/api/leads/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid lead id"))
		return
	}
	if err := h.service.Delete(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "failed to delete lead",
			"lead_id", id,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "lead deleted",
		"lead_id", id,
		"admin", admin.GetUsername(ctx),
		"request_id", requestID,
	)
	w.WriteHeader(http.StatusNoContent)
}
