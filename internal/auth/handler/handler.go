package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"arq/internal/auth/metrics"
	"arq/internal/auth/models"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/httputil"
	"arq/pkg/platform/middleware/admin"
	"arq/pkg/requestcontext"
)

// CredentialVerifier checks a username/password pair.
type CredentialVerifier interface {
	VerifyCredentials(username, password string) bool
}

// SessionAuthority mints and verifies admin session tokens.
type SessionAuthority interface {
	CreateSession(username string) (string, error)
	VerifySession(token string) *models.SessionClaims
}

// errInvalidCredentials is the single failure response for login, whether the
// username exists or not.
var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials")

// Config controls the session cookie.
type Config struct {
	CookieName string
	// Secure marks the cookie Secure; set in production.
	Secure bool
}

// Handler serves the admin login, logout and me endpoints.
type Handler struct {
	credentials CredentialVerifier
	sessions    SessionAuthority
	cfg         Config
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates an auth handler. metrics may be nil.
func New(credentials CredentialVerifier, sessions SessionAuthority, cfg Config, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = models.SessionCookieName
	}
	return &Handler{
		credentials: credentials,
		sessions:    sessions,
		cfg:         cfg,
		metrics:     m,
		logger:      logger,
	}
}

// RegisterPublic mounts the routes the gateway lets through. Login runs
// behind limit("login"); logout only expires a cookie and is never limited.
func (h *Handler) RegisterPublic(r chi.Router, limit func(endpoint string) func(http.Handler) http.Handler) {
	r.With(limit("login")).Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
}

// RegisterAdmin mounts the routes that require a verified session.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/me", h.HandleMe)
}

// HandleLogin implements POST /admin/api/login.
//
// Input: { "username": "...", "password": "..." }
// Output: { "username": "...", "expires_at": "..." } and the session cookie.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger)
	if !ok {
		h.metrics.IncrementLogin(metrics.OutcomeRejected)
		return
	}

	if !h.credentials.VerifyCredentials(req.Username, req.Password) {
		h.logger.WarnContext(ctx, "admin login failed",
			"request_id", requestID,
		)
		h.metrics.IncrementLogin(metrics.OutcomeFailure)
		httputil.WriteError(w, errInvalidCredentials)
		return
	}

	token, err := h.sessions.CreateSession(req.Username)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create admin session",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	claims := h.sessions.VerifySession(token)
	if claims == nil {
		h.logger.ErrorContext(ctx, "freshly issued admin session failed verification",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session verification failed"))
		return
	}

	h.setSessionCookie(w, token, int(claims.ExpiresAt.Sub(claims.IssuedAt).Seconds()))
	h.metrics.IncrementLogin(metrics.OutcomeSuccess)
	h.logger.InfoContext(ctx, "admin logged in",
		"username", claims.Username,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, &models.SessionResponse{
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt,
	})
}

// HandleLogout implements POST /admin/api/logout. It always succeeds; there
// is no server-side session state to revoke.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.metrics.IncrementLogout()
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleMe implements GET /admin/api/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims := admin.GetSession(r.Context())
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no token"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.SessionResponse{
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt,
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	if maxAge <= 0 {
		maxAge = int(models.SessionTTL.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
