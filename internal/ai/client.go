// Package ai is a client for an OpenAI-compatible chat-completions API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"arq/internal/platform/tracer"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/circuit"
	"arq/pkg/platform/sentinel"
)

// Defaults for the outbound call.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
	maxResponseBytes   = 1 << 20
)

// Config holds provider settings. An empty APIKey disables the client.
type Config struct {
	APIURL string
	APIKey string
	Model  string
	// Timeout bounds one completion call. Defaults to DefaultTimeout.
	Timeout time.Duration
	// RequestsPerSecond and Burst throttle outbound calls. Defaults 2 and 4.
	RequestsPerSecond float64
	Burst             int
}

// Prompt is one completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	// Messages, when set, replaces User with a full conversation.
	Messages []Message
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client calls the provider. The zero value is not usable; use New.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuit.Breaker
	tracer  tracer.Tracer
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(cl *Client) {
		if t != nil {
			cl.tracer = t
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		if b != nil {
			cl.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// New builds a client. It never fails; an unconfigured client reports
// sentinel.ErrNotConfigured from Complete.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: circuit.New("ai", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
		tracer:  tracer.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has credentials and an endpoint.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != "" && c.cfg.APIURL != ""
}

// Complete returns the assistant text for p.
//
// Errors carry domain codes: Unavailable when unconfigured or the circuit is
// open, Timeout when the call exceeds its deadline, Upstream for anything the
// provider got wrong.
func (c *Client) Complete(ctx context.Context, p Prompt) (_ string, err error) {
	if !c.Configured() {
		return "", dErrors.Wrap(sentinel.ErrNotConfigured, dErrors.CodeUnavailable, "AI provider is not configured")
	}
	if !c.breaker.Allow() {
		return "", dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable, "AI provider is temporarily unavailable")
	}

	ctx, span := c.tracer.Start(ctx, tracer.SpanAIComplete,
		tracer.String(tracer.AttrModel, c.cfg.Model),
		tracer.Int(tracer.AttrMaxTokens, maxTokens(p)),
	)
	defer func() { span.End(err) }()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeTimeout, "AI request throttled past its deadline")
	}

	text, status, err := c.do(ctx, p)
	span.SetAttributes(tracer.Int(tracer.AttrStatusCode, status))
	if err != nil {
		if state := c.breaker.RecordFailure(); state == circuit.StateOpen {
			c.logger.WarnContext(ctx, "ai circuit open", "breaker", c.breaker.Name())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "AI request timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUpstream, "AI request failed")
	}
	c.breaker.RecordSuccess()
	return text, nil
}

func (c *Client) do(ctx context.Context, p Prompt) (string, int, error) {
	body, err := json.Marshal(buildRequest(c.cfg.Model, p))
	if err != nil {
		return "", 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", resp.StatusCode, fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", resp.StatusCode, errors.New("provider returned no choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", resp.StatusCode, errors.New("provider returned empty content")
	}
	return text, resp.StatusCode, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

func buildRequest(model string, p Prompt) chatRequest {
	messages := make([]Message, 0, len(p.Messages)+2)
	if p.System != "" {
		messages = append(messages, Message{Role: "system", Content: p.System})
	}
	if len(p.Messages) > 0 {
		messages = append(messages, p.Messages...)
	} else {
		messages = append(messages, Message{Role: "user", Content: p.User})
	}
	temperature := p.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	req := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens(p),
		Temperature: temperature,
	}
	if p.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return req
}

func maxTokens(p Prompt) int {
	if p.MaxTokens > 0 {
		return p.MaxTokens
	}
	return DefaultMaxTokens
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
