// Package notify sends transactional email for leads.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"arq/internal/platform/tracer"
	"arq/pkg/platform/sentinel"
)

// Message is one outbound email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
	// Template names the message for tracing; not sent.
	Template string `json:"-"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// EmailConfig configures the HTTP email API.
type EmailConfig struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
	// RequestsPerSecond throttles outbound sends. Default 5.
	RequestsPerSecond float64
}

// HTTPSender posts messages as JSON with a bearer key.
type HTTPSender struct {
	cfg     EmailConfig
	client  *http.Client
	limiter *rate.Limiter
	tracer  tracer.Tracer
}

// SenderOption configures an HTTPSender.
type SenderOption func(*HTTPSender)

func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *HTTPSender) {
		if c != nil {
			s.client = c
		}
	}
}

func WithTracer(t tracer.Tracer) SenderOption {
	return func(s *HTTPSender) {
		if t != nil {
			s.tracer = t
		}
	}
}

func NewHTTPSender(cfg EmailConfig, opts ...SenderOption) *HTTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	s := &HTTPSender{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSender) Send(ctx context.Context, msg *Message) (err error) {
	if s.cfg.APIURL == "" || s.cfg.APIKey == "" {
		return sentinel.ErrNotConfigured
	}
	recipient := ""
	if len(msg.To) > 0 {
		recipient = msg.To[0]
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanEmailSend,
		tracer.String(tracer.AttrTemplate, msg.Template),
		tracer.String(tracer.AttrRecipient, tracer.HashEmail(recipient)),
	)
	defer func() { span.End(err) }()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email throttled: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort cleanup

	span.SetAttributes(tracer.Int(tracer.AttrStatusCode, resp.StatusCode))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// LogSender stands in when no email API is configured. It logs the
// subject and masked recipient and reports success.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	s.logger.InfoContext(ctx, "email not sent: sender not configured",
		"template", msg.Template,
		"subject", msg.Subject,
		"recipients", len(msg.To),
	)
	return nil
}
