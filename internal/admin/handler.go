package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"arq/pkg/platform/httputil"
	"arq/pkg/platform/middleware/admin"
	"arq/pkg/requestcontext"
)

// Handler handles admin dashboard endpoints
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// New creates a new admin handler
func New(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register registers dashboard routes under the admin API.
func (h *Handler) Register(r chi.Router) {
	r.Get("/stats", h.HandleGetStats)
	r.Get("/ratelimit/policies", h.HandleGetPolicies)
}

// HandleGetStats returns lead and content counts
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	stats, err := h.service.GetStats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get stats",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin stats retrieved",
		"admin", admin.GetUsername(ctx),
		"request_id", requestID,
	)

	httputil.WriteJSON(w, http.StatusOK, stats)
}

// PoliciesResponse is returned by GET /admin/api/ratelimit/policies.
type PoliciesResponse struct {
	Policies []PolicyView `json:"policies"`
}

// HandleGetPolicies returns the effective rate-limit table
func (h *Handler) HandleGetPolicies(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, &PoliciesResponse{Policies: h.service.Policies()})
}
