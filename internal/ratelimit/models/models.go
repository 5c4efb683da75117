package models

import (
	"fmt"
	"time"
)

// EndpointClass names a rate-limit policy.
type EndpointClass string

const (
	// ClassAuth guards admin login.
	ClassAuth EndpointClass = "auth"
	// ClassChat guards the AI chat assistant.
	ClassChat EndpointClass = "chat"
	// ClassAPI guards general public reads and low-risk writes.
	ClassAPI EndpointClass = "api"
	// ClassSensitive guards form submissions that trigger email and AI work.
	ClassSensitive EndpointClass = "sensitive"
)

// Classes lists every known class in a stable order.
var Classes = []EndpointClass{ClassAuth, ClassChat, ClassAPI, ClassSensitive}

func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassAuth, ClassChat, ClassAPI, ClassSensitive:
		return true
	}
	return false
}

func (c EndpointClass) String() string {
	return string(c)
}

// Policy is a fixed-window quota: at most MaxRequests per Window.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

func (p Policy) Validate() error {
	if p.MaxRequests <= 0 {
		return fmt.Errorf("max requests must be positive, got %d", p.MaxRequests)
	}
	if p.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", p.Window)
	}
	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("%d/%s", p.MaxRequests, p.Window)
}

// RateLimitResult is the outcome of one check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
