// Package tracer provides a small tracing abstraction for outbound
// collaborator calls (AI provider, email API, keyword research).
//
// Implementations:
//   - NoopTracer: for tests and when tracing is off
//   - OTelTracer: OpenTelemetry adapter
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashEmail returns a short SHA-256 digest of a normalized address so spans
// can be correlated without carrying the address itself.
func HashEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanAIComplete      = "ai.complete"
	SpanEmailSend       = "email.send"
	SpanKeywordLookup   = "keywords.lookup"
	SpanKeywordResearch = "keywords.research"
)

// Attribute keys.
const (
	AttrModel      = "ai.model"
	AttrMaxTokens  = "ai.max_tokens"
	AttrStatusCode = "http.status_code"
	AttrRecipient  = "email.recipient_hash"
	AttrTemplate   = "email.template"
	AttrKeyword    = "keyword"
	AttrCacheHit   = "cache.hit"
)
