package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	dErrors "arq/pkg/domain-errors"
	pkgstrings "arq/pkg/platform/strings"
	"arq/pkg/platform/validation"
)

// Type is the kind of marketing content.
type Type string

const (
	TypeBlog       Type = "blog"
	TypeCaseStudy  Type = "case_study"
	TypeWhitepaper Type = "whitepaper"
	TypeWebinar    Type = "webinar"
)

// Types lists every content type in display order.
var Types = []Type{TypeBlog, TypeCaseStudy, TypeWhitepaper, TypeWebinar}

func (t Type) IsValid() bool {
	switch t {
	case TypeBlog, TypeCaseStudy, TypeWhitepaper, TypeWebinar:
		return true
	}
	return false
}

// ListLimit caps every listing.
const ListLimit = 100

// Item is one piece of content. Body is Markdown source; HTML is rendered
// from it on single-item reads and never stored.
type Item struct {
	ID        uuid.UUID  `json:"id"`
	Type      Type       `json:"type"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Excerpt   string     `json:"excerpt,omitempty"`
	Body      string     `json:"body,omitempty"`
	HTML      string     `json:"html,omitempty"`
	Keywords  []string   `json:"keywords"`
	FileURL   string     `json:"file_url,omitempty"`
	EventAt   *time.Time `json:"event_at,omitempty"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Downloadable reports whether the item can be handed out as a resource.
func (i *Item) Downloadable() bool {
	return i.Published && i.FileURL != ""
}

// Filter narrows a listing.
type Filter struct {
	Type          Type
	PublishedOnly bool
	Limit         int
}

// Stats counts stored items per type.
type Stats map[Type]int

// ItemRequest is the admin create and update body. Updates replace every
// field.
type ItemRequest struct {
	Type      Type       `json:"type" validate:"required,oneof=blog case_study whitepaper webinar"`
	Slug      string     `json:"slug" validate:"omitempty,slug,max=200"`
	Title     string     `json:"title" validate:"required,notblank,max=200"`
	Excerpt   string     `json:"excerpt" validate:"max=500"`
	Body      string     `json:"body" validate:"max=200000"`
	Keywords  []string   `json:"keywords" validate:"dive,max=100"`
	FileURL   string     `json:"file_url" validate:"omitempty,url,max=1000"`
	EventAt   *time.Time `json:"event_at"`
	Published bool       `json:"published"`
}

// Normalize trims fields, derives a missing slug from the title and
// de-duplicates keywords case-insensitively.
func (r *ItemRequest) Normalize() {
	r.Type = Type(strings.ToLower(strings.TrimSpace(string(r.Type))))
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	if r.Slug == "" {
		r.Slug = Slugify(r.Title)
	}
	r.Excerpt = strings.TrimSpace(r.Excerpt)
	r.FileURL = strings.TrimSpace(r.FileURL)
	r.Keywords = pkgstrings.DedupeAndTrimLower(r.Keywords)
}

func (r *ItemRequest) Validate() error {
	if err := validation.CheckSliceCount("keywords", len(r.Keywords), validation.MaxKeywords); err != nil {
		return err
	}
	if err := validation.CheckEachStringLength("keyword", r.Keywords, validation.MaxKeywordLength); err != nil {
		return err
	}
	if err := validation.Validate(r); err != nil {
		return err
	}
	if r.Slug == "" {
		return dErrors.New(dErrors.CodeValidation, "slug is required")
	}
	return nil
}

// Apply copies the request onto item.
func (r *ItemRequest) Apply(item *Item) {
	item.Type = r.Type
	item.Slug = r.Slug
	item.Title = r.Title
	item.Excerpt = r.Excerpt
	item.Body = r.Body
	item.Keywords = append([]string{}, r.Keywords...)
	item.FileURL = r.FileURL
	item.EventAt = r.EventAt
	item.Published = r.Published
}

// GenerateRequest asks the AI for a draft.
type GenerateRequest struct {
	Topic    string   `json:"topic" validate:"required,notblank,max=300"`
	Type     Type     `json:"type" validate:"required,oneof=blog case_study whitepaper webinar"`
	Keywords []string `json:"keywords" validate:"dive,max=100"`
}

func (r *GenerateRequest) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Type = Type(strings.ToLower(strings.TrimSpace(string(r.Type))))
	if r.Type == "" {
		r.Type = TypeBlog
	}
	r.Keywords = pkgstrings.DedupeAndTrimLower(r.Keywords)
}

func (r *GenerateRequest) Validate() error {
	if err := validation.CheckSliceCount("keywords", len(r.Keywords), validation.MaxKeywords); err != nil {
		return err
	}
	return validation.Validate(r)
}

// Draft is an unsaved AI-written item.
type Draft struct {
	Type     Type     `json:"type"`
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Body     string   `json:"body"`
	Keywords []string `json:"keywords"`
}

// Slugify lower-cases s and joins its letter and digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	out := b.String()
	if len(out) > 200 {
		out = strings.TrimRight(out[:200], "-")
	}
	return out
}
