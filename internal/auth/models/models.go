package models

import (
	"strings"
	"time"

	"arq/pkg/platform/validation"
)

// SessionType is the only accepted value of the "type" claim on admin tokens.
const SessionType = "admin_session"

// SessionTTL is the lifetime of an admin session token and its cookie.
const SessionTTL = 24 * time.Hour

// SessionCookieName carries the signed session token.
const SessionCookieName = "admin_session"

// SessionClaims is the verified content of an admin session token.
type SessionClaims struct {
	Username  string
	Type      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdminSession reports whether the claims carry the admin session type.
func (c *SessionClaims) IsAdminSession() bool {
	return c != nil && c.Type == SessionType
}

// LoginRequest is the body of POST /admin/api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

// SessionResponse is returned by login and GET /admin/api/me.
type SessionResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}
