package models

import (
	"strings"
	"time"

	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/validation"
)

// CacheTTL is how long a research result is served from the cache.
const CacheTTL = 7 * 24 * time.Hour

// Related is a neighbouring search phrase.
type Related struct {
	Keyword      string `json:"keyword"`
	SearchVolume int    `json:"search_volume"`
}

// Result is the research data for one normalised keyword.
type Result struct {
	Keyword      string    `json:"keyword"`
	SearchVolume int       `json:"search_volume"`
	Difficulty   int       `json:"difficulty"`
	CPC          float64   `json:"cpc"`
	Competition  float64   `json:"competition"`
	Related      []Related `json:"related"`
	FetchedAt    time.Time `json:"fetched_at"`
	Cached       bool      `json:"cached"`
}

// Fresh reports whether r may still be served from the cache at now.
func (r *Result) Fresh(now time.Time) bool {
	return now.Sub(r.FetchedAt) < CacheTTL
}

// Normalize trims, lower-cases and collapses inner whitespace. The result
// is the cache key.
func Normalize(raw string) (string, error) {
	keyword := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	if keyword == "" {
		return "", dErrors.New(dErrors.CodeValidation, "keyword is required")
	}
	if err := validation.CheckStringLength("keyword", keyword, validation.MaxKeywordLength); err != nil {
		return "", err
	}
	return keyword, nil
}
