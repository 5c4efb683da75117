// Package health serves the liveness, readiness and status endpoints.
//
// Readiness only fails on registered checks (the database). Optional
// collaborators such as the AI or email API are reported on /health as
// enabled or disabled and never take the process out of rotation.
package health

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"arq/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckTimeout bounds each readiness check.
const CheckTimeout = 2 * time.Second

// CheckFunc returns nil when the dependency is usable.
type CheckFunc func(ctx context.Context) error

type Handler struct {
	startTime   time.Time
	environment string
	logger      *slog.Logger

	mu       sync.RWMutex
	checks   map[string]CheckFunc
	features map[string]bool
}

func New(environment string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		startTime:   time.Now(),
		environment: environment,
		logger:      logger,
		checks:      make(map[string]CheckFunc),
		features:    make(map[string]bool),
	}
}

// RegisterCheck adds a dependency readiness must see healthy.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// ReportFeature records whether an optional collaborator is configured.
func (h *Handler) ReportFeature(name string, enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.features[name] = enabled
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness runs the registered checks concurrently and answers 503
// if any of them fails. Failure details are logged, not returned.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := maps.Clone(h.checks)
	h.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		resMu   sync.Mutex
		healthy = true
		results = make(map[string]string, len(checks))
	)
	for name, check := range checks {
		wg.Go(func() {
			ctx, cancel := context.WithTimeout(r.Context(), CheckTimeout)
			defer cancel()
			err := check(ctx)

			resMu.Lock()
			defer resMu.Unlock()
			if err != nil {
				h.logger.WarnContext(r.Context(), "readiness check failed", "check", name, "error", err)
				results[name] = "down"
				healthy = false
				return
			}
			results[name] = "up"
		})
	}
	wg.Wait()

	if !healthy {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready", Checks: results})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReadinessResponse{Status: "ready", Checks: results})
}

type StatusResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Environment   string            `json:"environment"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Timestamp     string            `json:"timestamp"`
	Features      map[string]string `json:"features,omitempty"`
}

// HandleStatus reports version, uptime and which optional collaborators
// are enabled.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	features := make(map[string]string, len(h.features))
	for name, enabled := range h.features {
		features[name] = "disabled"
		if enabled {
			features[name] = "enabled"
		}
	}
	h.mu.RUnlock()

	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Features:      features,
	})
}
