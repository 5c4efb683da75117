package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"arq/internal/platform/logger"
	ratelimitConfig "arq/internal/ratelimit/config"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures process-level configuration.
type Server struct {
	Environment string
	Addr        string
	LogLevel    string

	DatabaseURL string

	// AdminSessionSecret signs admin session tokens. Never defaulted.
	AdminSessionSecret string
	// AdminCredentials is "user:bcrypt-hash,..." as accepted by credentials.Parse.
	AdminCredentials string

	RateLimitPolicies      string
	RateLimitSweepInterval time.Duration

	// TrustedProxies is a comma-separated CIDR list, or "*".
	TrustedProxies string

	Email    Email
	AI       AI
	Keywords Keywords

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Email configures the transactional email API.
type Email struct {
	APIURL   string
	APIKey   string
	From     string
	NotifyTo string
}

// Configured reports whether the sender can deliver mail.
func (e Email) Configured() bool {
	return e.APIURL != "" && e.APIKey != "" && e.From != ""
}

// AI configures the chat-completions provider.
type AI struct {
	APIURL string
	APIKey string
	Model  string
}

// Keywords configures the keyword research provider.
type Keywords struct {
	APIURL string
	APIKey string
}

// IsProduction reports whether the server runs in production mode.
func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed durations are reported by Validate rather than silently replaced.
func FromEnv() (Server, error) {
	cfg := Server{
		Environment:        getEnv("APP_ENV", EnvDevelopment),
		Addr:               getEnv("ARQ_ADDR", ":8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AdminSessionSecret: os.Getenv("ADMIN_SESSION_SECRET"),
		AdminCredentials:   os.Getenv("ADMIN_CREDENTIALS"),
		RateLimitPolicies:  os.Getenv("RATE_LIMIT_POLICIES"),
		TrustedProxies:     os.Getenv("TRUSTED_PROXIES"),
		Email: Email{
			APIURL:   getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
			APIKey:   os.Getenv("EMAIL_API_KEY"),
			From:     os.Getenv("EMAIL_FROM"),
			NotifyTo: os.Getenv("EMAIL_NOTIFY_TO"),
		},
		AI: AI{
			APIURL: getEnv("AI_API_URL", "https://api.openai.com/v1/chat/completions"),
			APIKey: os.Getenv("AI_API_KEY"),
			Model:  getEnv("AI_MODEL", "gpt-4o-mini"),
		},
		Keywords: Keywords{
			APIURL: os.Getenv("KEYWORD_API_URL"),
			APIKey: os.Getenv("KEYWORD_API_KEY"),
		},
	}

	var errs []error
	var err error
	if cfg.RateLimitSweepInterval, err = getDuration("RATE_LIMIT_SWEEP_INTERVAL", ratelimitConfig.DefaultSweepInterval); err != nil {
		errs = append(errs, err)
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

// Validate reports every configuration problem at once. Missing collaborators
// (database, email, AI) are not errors; the server degrades instead.
func (s Server) Validate() error {
	var problems []string
	switch s.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		problems = append(problems, "APP_ENV must be development or production")
	}
	if s.Addr == "" {
		problems = append(problems, "ARQ_ADDR must not be empty")
	}
	if _, err := logger.ParseLevel(s.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if s.IsProduction() {
		if s.AdminSessionSecret == "" {
			problems = append(problems, "ADMIN_SESSION_SECRET is required in production")
		}
		if s.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required in production")
		}
	}
	if s.AdminSessionSecret != "" && len(s.AdminSessionSecret) < 32 {
		problems = append(problems, "ADMIN_SESSION_SECRET must be at least 32 bytes")
	}
	if s.RateLimitSweepInterval <= 0 {
		problems = append(problems, "RATE_LIMIT_SWEEP_INTERVAL must be positive")
	}
	if s.RateLimitPolicies != "" {
		if _, err := ratelimitConfig.ParsePolicies(s.RateLimitPolicies); err != nil {
			problems = append(problems, "RATE_LIMIT_POLICIES: "+err.Error())
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &ConfigError{Problems: problems}
}

// ConfigError lists configuration problems. The server logs it at CRITICAL.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, errors.New(key + ": " + err.Error())
	}
	return d, nil
}
