package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"arq/internal/admin"
	authHandler "arq/internal/auth/handler"
	authMetrics "arq/internal/auth/metrics"
	"arq/internal/chat"
	contentHandler "arq/internal/content/handler"
	keywordsHandler "arq/internal/keywords/handler"
	leadsHandler "arq/internal/leads/handler"
	"arq/internal/platform/health"
	rateLimitMW "arq/internal/ratelimit/middleware"
	rateLimitModels "arq/internal/ratelimit/models"
	adminMW "arq/pkg/platform/middleware/admin"
	"arq/pkg/platform/middleware/metadata"
	"arq/pkg/platform/middleware/request"
	"arq/pkg/platform/middleware/requesttime"
)

const (
	// AdminPrefix is the namespace guarded by the admin session gateway.
	AdminPrefix = "/admin/api"

	PublicBodyLimit int64 = 64 << 10
	AdminBodyLimit  int64 = 1 << 20

	DefaultRequestTimeout = 60 * time.Second
)

// Handlers groups the bounded-context handlers the router mounts.
type Handlers struct {
	Leads    *leadsHandler.Handler
	Content  *contentHandler.Handler
	Keywords *keywordsHandler.Handler
	Chat     *chat.Handler
	Auth     *authHandler.Handler
	Admin    *admin.Handler
	Health   *health.Handler
}

// Config carries the cross-cutting pieces of the HTTP stack.
type Config struct {
	// RateLimit guards public forms, chat and admin login.
	RateLimit *rateLimitMW.Middleware
	// Sessions verifies admin session cookies at the gateway.
	Sessions adminMW.SessionVerifier
	// AuthMetrics records gateway rejections; optional.
	AuthMetrics *authMetrics.Metrics
	// RequestMetrics records per-route latency; optional.
	RequestMetrics *request.Metrics
	// Metadata resolves the client IP from trusted proxies.
	Metadata *metadata.Config
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// RequestTimeout bounds every handler. Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// NewRouter wires every endpoint with the shared middleware stack.
func NewRouter(h Handlers, cfg Config, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(cfg.Metadata).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(request.LatencyMiddleware(cfg.RequestMetrics))

	if h.Health != nil {
		h.Health.Register(r)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// Policies are chosen per class; each endpoint name keeps its own counter.
	var (
		sensitive = cfg.RateLimit.ForClass(rateLimitModels.ClassSensitive)
		api       = cfg.RateLimit.ForClass(rateLimitModels.ClassAPI)
		chatLimit = cfg.RateLimit.ForClass(rateLimitModels.ClassChat)
		auth      = cfg.RateLimit.ForClass(rateLimitModels.ClassAuth)
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(PublicBodyLimit))

		r.With(sensitive("contact")).Post("/contact", h.Leads.HandleContact)
		r.With(sensitive("partners")).Post("/partners", h.Leads.HandlePartner)
		r.With(api("newsletter")).Post("/newsletter", h.Leads.HandleNewsletter)
		r.With(api("downloads")).Post("/downloads", h.Leads.HandleDownload)
		r.With(chatLimit("chat")).Post("/chat", h.Chat.HandleChat)
		h.Content.RegisterPublic(r, api)
	})

	r.Route(AdminPrefix, func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(AdminBodyLimit))
		r.Use(adminMW.RequireAdminSession(cfg.Sessions, adminMW.Config{
			Prefix:      AdminPrefix,
			PublicPaths: []string{AdminPrefix + "/login", AdminPrefix + "/logout"},
			OnReject:    cfg.AuthMetrics.ObserveGatewayRejection,
		}, logger))

		h.Auth.RegisterPublic(r, auth)
		h.Auth.RegisterAdmin(r)
		h.Leads.RegisterAdmin(r)
		h.Content.RegisterAdmin(r)
		h.Keywords.RegisterAdmin(r)
		h.Admin.Register(r)
	})

	return r
}
