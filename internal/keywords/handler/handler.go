package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"arq/internal/keywords/models"
	"arq/pkg/platform/httputil"
	"arq/pkg/requestcontext"
)

// Researcher answers keyword research.
type Researcher interface {
	Research(ctx context.Context, raw string) (*models.Result, error)
}

type Handler struct {
	research Researcher
	logger   *slog.Logger
}

func New(research Researcher, logger *slog.Logger) *Handler {
	return &Handler{research: research, logger: logger}
}

// RegisterAdmin mounts GET /keywords under the admin API.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/keywords", h.HandleResearch)
}

// HandleResearch implements GET /admin/api/keywords?q=.
func (h *Handler) HandleResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.research.Research(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.WarnContext(ctx, "keyword research request failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
