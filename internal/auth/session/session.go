// Package session issues and verifies admin session tokens: HS256 JWTs with
// a 24h lifetime, held by the browser in the admin_session cookie.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"arq/internal/auth/models"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/secrets"
)

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("admin session secret is not configured")

// claims is the wire form of an admin session token.
type claims struct {
	Username string `json:"username"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

// Authority signs and verifies admin session tokens with one symmetric secret.
// It holds no per-session state; tokens cannot be revoked before they expire.
type Authority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Authority.
type Option func(*Authority)

// WithClock overrides the clock used for iat/exp and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		if now != nil {
			a.now = now
		}
	}
}

// WithTTL overrides the token lifetime. Used by tests and adminctl.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authority) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// New creates an Authority. An empty secret is rejected; there is no
// built-in fallback.
func New(secret []byte, opts ...Option) (*Authority, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	a := &Authority{
		secret: append([]byte(nil), secret...),
		ttl:    models.SessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ResolveSecret decides which signing secret the process runs with.
// A configured secret is used as-is. Without one, production refuses to
// start and any other environment gets a random per-process secret; the
// caller must log that loudly since every restart invalidates sessions.
func ResolveSecret(configured string, production bool) (secret []byte, ephemeral bool, err error) {
	if configured != "" {
		return []byte(configured), false, nil
	}
	if production {
		return nil, false, ErrMissingSecret
	}
	generated, err := secrets.Generate(secrets.MinSigningSecretBytes)
	if err != nil {
		return nil, false, err
	}
	return []byte(generated), true, nil
}

// CreateSession mints a token for username with
// {username, type: admin_session, iat: now, exp: now + TTL}.
func (a *Authority) CreateSession(username string) (string, error) {
	if username == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "username is required")
	}
	issuedAt := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		Type:     models.SessionType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(a.ttl)),
		},
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}

// VerifySession returns the claims of a well-formed, correctly signed,
// unexpired HS256 token, or nil for anything else. It does not check the
// type claim; the gateway does, so the two rejection reasons stay apart.
func (a *Authority) VerifySession(tokenString string) *models.SessionClaims {
	if tokenString == "" {
		return nil
	}
	parsed := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, parsed,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil
	}

	out := &models.SessionClaims{
		Username:  parsed.Username,
		Type:      parsed.Type,
		ExpiresAt: parsed.ExpiresAt.Time,
	}
	if parsed.IssuedAt != nil {
		out.IssuedAt = parsed.IssuedAt.Time
	}
	return out
}
