package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"arq/pkg/platform/validation"
)

// Kind is the form a lead came from.
type Kind string

const (
	KindContact    Kind = "contact"
	KindNewsletter Kind = "newsletter"
	KindPartner    Kind = "partner"
	KindDownload   Kind = "download"
)

// Kinds lists every lead kind in display order.
var Kinds = []Kind{KindContact, KindNewsletter, KindPartner, KindDownload}

func (k Kind) IsValid() bool {
	switch k {
	case KindContact, KindNewsletter, KindPartner, KindDownload:
		return true
	}
	return false
}

// Analyzed reports whether submissions of this kind carry a free-text
// message worth sending to the AI analyzer.
func (k Kind) Analyzed() bool {
	return k == KindContact || k == KindPartner
}

// ListLimit caps admin listings and exports.
const ListLimit = 100

// Lead is a stored form submission.
type Lead struct {
	ID             uuid.UUID `json:"id"`
	Kind           Kind      `json:"kind"`
	Name           string    `json:"name,omitempty"`
	Email          string    `json:"email"`
	Company        string    `json:"company,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Website        string    `json:"website,omitempty"`
	Message        string    `json:"message,omitempty"`
	Resource       string    `json:"resource,omitempty"`
	SourcePage     string    `json:"source_page,omitempty"`
	ClientIPPrefix string    `json:"client_ip_prefix,omitempty"`
	Device         string    `json:"device,omitempty"`
	Analysis       *Analysis `json:"analysis,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Priority is the analyzer's triage bucket.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Analysis is the AI triage of a lead's message.
type Analysis struct {
	Summary  string   `json:"summary"`
	Intent   string   `json:"intent"`
	Priority Priority `json:"priority"`
	Score    int      `json:"score"`
}

// Submission is a validated form plus the request metadata the service
// turns into stored fields.
type Submission struct {
	Lead      *Lead
	ClientIP  string
	UserAgent string
}

// SubmitResult is returned to the public form.
type SubmitResult struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Duplicate bool      `json:"duplicate,omitempty"`
	FileURL   string    `json:"file_url,omitempty"`
}

// Stats counts stored leads per kind.
type Stats map[Kind]int

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=100"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Company    string `json:"company" validate:"max=200"`
	Phone      string `json:"phone" validate:"max=50"`
	Message    string `json:"message" validate:"required,notblank,max=5000"`
	SourcePage string `json:"source_page" validate:"max=500"`
}

func (r *ContactRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Company = strings.TrimSpace(r.Company)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Message = strings.TrimSpace(r.Message)
	r.SourcePage = strings.TrimSpace(r.SourcePage)
}

func (r *ContactRequest) Validate() error { return validation.Validate(r) }

func (r *ContactRequest) Lead() *Lead {
	return &Lead{
		Kind:       KindContact,
		Name:       r.Name,
		Email:      r.Email,
		Company:    r.Company,
		Phone:      r.Phone,
		Message:    r.Message,
		SourcePage: r.SourcePage,
	}
}

// PartnerRequest is the body of POST /api/partners.
type PartnerRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=100"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Company    string `json:"company" validate:"required,notblank,max=200"`
	Website    string `json:"website" validate:"omitempty,url,max=500"`
	Message    string `json:"message" validate:"required,notblank,max=5000"`
	SourcePage string `json:"source_page" validate:"max=500"`
}

func (r *PartnerRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Company = strings.TrimSpace(r.Company)
	r.Website = strings.TrimSpace(r.Website)
	r.Message = strings.TrimSpace(r.Message)
	r.SourcePage = strings.TrimSpace(r.SourcePage)
}

func (r *PartnerRequest) Validate() error { return validation.Validate(r) }

func (r *PartnerRequest) Lead() *Lead {
	return &Lead{
		Kind:       KindPartner,
		Name:       r.Name,
		Email:      r.Email,
		Company:    r.Company,
		Website:    r.Website,
		Message:    r.Message,
		SourcePage: r.SourcePage,
	}
}

// NewsletterRequest is the body of POST /api/newsletter.
type NewsletterRequest struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Name       string `json:"name" validate:"max=100"`
	SourcePage string `json:"source_page" validate:"max=500"`
}

func (r *NewsletterRequest) Normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.SourcePage = strings.TrimSpace(r.SourcePage)
}

func (r *NewsletterRequest) Validate() error { return validation.Validate(r) }

func (r *NewsletterRequest) Lead() *Lead {
	return &Lead{
		Kind:       KindNewsletter,
		Name:       r.Name,
		Email:      r.Email,
		SourcePage: r.SourcePage,
	}
}

// DownloadRequest is the body of POST /api/downloads.
type DownloadRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=100"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Company    string `json:"company" validate:"max=200"`
	Resource   string `json:"resource" validate:"required,slug,max=200"`
	SourcePage string `json:"source_page" validate:"max=500"`
}

func (r *DownloadRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Company = strings.TrimSpace(r.Company)
	r.Resource = strings.ToLower(strings.TrimSpace(r.Resource))
	r.SourcePage = strings.TrimSpace(r.SourcePage)
}

func (r *DownloadRequest) Validate() error { return validation.Validate(r) }

func (r *DownloadRequest) Lead() *Lead {
	return &Lead{
		Kind:       KindDownload,
		Name:       r.Name,
		Email:      r.Email,
		Company:    r.Company,
		Resource:   r.Resource,
		SourcePage: r.SourcePage,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
