// Package client calls the external keyword-research API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"arq/internal/keywords/models"
	"arq/internal/platform/tracer"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/circuit"
	"arq/pkg/platform/sentinel"
)

// Config holds the provider endpoint and key. An empty APIKey disables
// the client.
type Config struct {
	APIURL            string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client fetches research for one keyword at a time.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuit.Breaker
	tracer  tracer.Tracer
	logger  *slog.Logger
}

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

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 2),
		breaker: circuit.New("keywords", circuit.WithFailureThreshold(3), circuit.WithCooldown(time.Minute)),
		tracer:  tracer.NewNoop(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIURL != "" && strings.TrimSpace(c.cfg.APIKey) != ""
}

// apiResponse is the provider's wire format.
type apiResponse struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	Difficulty   int     `json:"keyword_difficulty"`
	CPC          float64 `json:"cpc"`
	Competition  float64 `json:"competition"`
	Related      []struct {
		Keyword      string `json:"keyword"`
		SearchVolume int    `json:"search_volume"`
	} `json:"related_keywords"`
}

// Research fetches keyword data. keyword must already be normalised.
func (c *Client) Research(ctx context.Context, keyword string) (_ *models.Result, err error) {
	if !c.Configured() {
		return nil, dErrors.Wrap(sentinel.ErrNotConfigured, dErrors.CodeUnavailable, "keyword research is not configured")
	}
	if !c.breaker.Allow() {
		return nil, dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable, "keyword research is temporarily unavailable")
	}

	ctx, span := c.tracer.Start(ctx, tracer.SpanKeywordResearch, tracer.String(tracer.AttrKeyword, keyword))
	defer func() { span.End(err) }()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "keyword request throttled past its deadline")
	}

	result, status, err := c.do(ctx, keyword)
	span.SetAttributes(tracer.Int(tracer.AttrStatusCode, status))
	if err != nil {
		if state := c.breaker.RecordFailure(); state == circuit.StateOpen {
			c.logger.WarnContext(ctx, "keyword circuit open", "breaker", c.breaker.Name())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "keyword request timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "keyword request failed")
	}
	c.breaker.RecordSuccess()
	return result, nil
}

func (c *Client) do(ctx context.Context, keyword string) (*models.Result, int, error) {
	endpoint, err := url.Parse(c.cfg.APIURL)
	if err != nil {
		return nil, 0, fmt.Errorf("parse api url: %w", err)
	}
	q := endpoint.Query()
	q.Set("keyword", keyword)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort cleanup

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("provider returned %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	result := &models.Result{
		Keyword:      keyword,
		SearchVolume: max(0, parsed.SearchVolume),
		Difficulty:   max(0, min(100, parsed.Difficulty)),
		CPC:          parsed.CPC,
		Competition:  parsed.Competition,
		Related:      make([]models.Related, 0, len(parsed.Related)),
	}
	for _, r := range parsed.Related {
		if r.Keyword == "" {
			continue
		}
		result.Related = append(result.Related, models.Related{Keyword: r.Keyword, SearchVolume: r.SearchVolume})
	}
	return result, resp.StatusCode, nil
}
