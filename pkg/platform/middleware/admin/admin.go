// Package admin guards the admin API prefix with session tokens.
//
// Requests under the prefix need a valid admin session cookie. Listed public
// paths such as login are let through untouched.
package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"arq/internal/auth/models"
	"arq/pkg/platform/httputil"
	"arq/pkg/requestcontext"
)

// Rejection reasons, used as log fields and metric labels.
const (
	ReasonNoToken      = "no_token"
	ReasonInvalidToken = "invalid_token"
	ReasonWrongType    = "wrong_type"
)

// SessionVerifier verifies a session token, returning nil when it is invalid.
type SessionVerifier interface {
	VerifySession(token string) *models.SessionClaims
}

// Config describes what the gateway protects.
type Config struct {
	// Prefix is the protected route prefix, e.g. "/admin/api".
	Prefix string
	// PublicPaths under Prefix that skip the check (login, logout).
	PublicPaths []string
	// CookieName carries the session token. Defaults to models.SessionCookieName.
	CookieName string
	// OnReject is called with the rejection reason; optional.
	OnReject func(reason string)
}

type contextKeySession struct{}

// WithSession stores verified session claims in ctx.
func WithSession(ctx context.Context, claims *models.SessionClaims) context.Context {
	return context.WithValue(ctx, contextKeySession{}, claims)
}

// GetSession returns the verified session claims, or nil outside the gateway.
func GetSession(ctx context.Context) *models.SessionClaims {
	claims, _ := ctx.Value(contextKeySession{}).(*models.SessionClaims)
	return claims
}

// GetUsername returns the authenticated admin username, or "".
func GetUsername(ctx context.Context) string {
	if claims := GetSession(ctx); claims != nil {
		return claims.Username
	}
	return ""
}

// RequireAdminSession is the single authentication check for admin routes.
// Requests under cfg.Prefix must carry a session cookie whose token verifies
// and whose type is admin_session; everything else passes untouched.
func RequireAdminSession(verifier SessionVerifier, cfg Config, logger *slog.Logger) func(http.Handler) http.Handler {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = models.SessionCookieName
	}
	public := make(map[string]struct{}, len(cfg.PublicPaths))
	for _, p := range cfg.PublicPaths {
		public[strings.TrimSuffix(p, "/")] = struct{}{}
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason, description string) {
		ctx := r.Context()
		logger.WarnContext(ctx, "admin request rejected",
			"reason", reason,
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(ctx),
		)
		if cfg.OnReject != nil {
			cfg.OnReject(reason)
		}
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":             "unauthorized",
			"error_description": description,
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !underPrefix(path, cfg.Prefix) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := public[strings.TrimSuffix(path, "/")]; ok {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				reject(w, r, ReasonNoToken, "no token")
				return
			}

			claims := verifier.VerifySession(cookie.Value)
			if claims == nil {
				reject(w, r, ReasonInvalidToken, "invalid or expired token")
				return
			}
			if !claims.IsAdminSession() {
				reject(w, r, ReasonWrongType, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims)))
		})
	}
}

func underPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
