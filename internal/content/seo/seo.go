// Package seo scores content drafts with simple on-page heuristics.
package seo

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"arq/pkg/platform/validation"
)

// Status grades one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check names.
const (
	CheckTitleLength    = "title_length"
	CheckExcerptLength  = "excerpt_length"
	CheckWordCount      = "word_count"
	CheckKeywordInTitle = "keyword_in_title"
	CheckKeywordDensity = "keyword_density"
	CheckHeadings       = "headings"
	CheckLinks          = "links"
)

// Input is the text under review. Body is Markdown.
type Input struct {
	Title   string `json:"title" validate:"max=500"`
	Excerpt string `json:"excerpt" validate:"max=2000"`
	Body    string `json:"body" validate:"max=200000"`
	Keyword string `json:"keyword" validate:"max=100"`
}

// Finding is the outcome of one check.
type Finding struct {
	Check   string `json:"check"`
	Status  Status `json:"status"`
	Points  int    `json:"points"`
	Max     int    `json:"max"`
	Message string `json:"message"`
}

// Report is the scored result. Score is 0-100.
type Report struct {
	Score          int       `json:"score"`
	WordCount      int       `json:"word_count"`
	KeywordDensity float64   `json:"keyword_density"`
	Findings       []Finding `json:"findings"`
}

// Analyze scores in. It never fails; empty input scores zero.
func Analyze(in Input) Report {
	title := strings.TrimSpace(in.Title)
	excerpt := strings.TrimSpace(in.Excerpt)
	words := tokenize(in.Body)
	keyword := tokenize(in.Keyword)

	density := 0.0
	if len(words) > 0 && len(keyword) > 0 {
		hits := countPhrase(words, keyword)
		density = math.Round(float64(hits*len(keyword))/float64(len(words))*10000) / 100
	}

	findings := []Finding{
		checkTitle(title),
		checkExcerpt(excerpt),
		checkWordCount(len(words)),
		checkKeywordInTitle(title, keyword),
		checkDensity(density, keyword),
		checkHeadings(countHeadings(in.Body)),
		checkLinks(strings.Count(in.Body, "](")),
	}

	score := 0
	for _, f := range findings {
		score += f.Points
	}
	return Report{
		Score:          min(100, score),
		WordCount:      len(words),
		KeywordDensity: density,
		Findings:       findings,
	}
}

func checkTitle(title string) Finding {
	f := Finding{Check: CheckTitleLength, Max: 15}
	n := len([]rune(title))
	switch {
	case n >= 30 && n <= 60:
		return f.pass(15, "title length is %d characters", n)
	case n > 0 && n <= 70:
		return f.warn(8, "title is %d characters; aim for 30-60", n)
	case n == 0:
		return f.fail("title is missing")
	default:
		return f.fail("title is %d characters and will be truncated", n)
	}
}

func checkExcerpt(excerpt string) Finding {
	f := Finding{Check: CheckExcerptLength, Max: 15}
	n := len([]rune(excerpt))
	switch {
	case n >= 70 && n <= 160:
		return f.pass(15, "excerpt length is %d characters", n)
	case n > 0:
		return f.warn(8, "excerpt is %d characters; aim for 70-160", n)
	default:
		return f.fail("excerpt is missing")
	}
}

func checkWordCount(n int) Finding {
	f := Finding{Check: CheckWordCount, Max: 20}
	switch {
	case n >= 600:
		return f.pass(20, "body has %d words", n)
	case n >= 300:
		return f.warn(10, "body has %d words; aim for 600+", n)
	default:
		return f.fail("body has %d words; aim for 600+", n)
	}
}

func checkKeywordInTitle(title string, keyword []string) Finding {
	f := Finding{Check: CheckKeywordInTitle, Max: 15}
	if len(keyword) == 0 {
		return f.warn(0, "no focus keyword given")
	}
	if countPhrase(tokenize(title), keyword) > 0 {
		return f.pass(15, "title contains the focus keyword")
	}
	return f.fail("title does not contain the focus keyword")
}

func checkDensity(density float64, keyword []string) Finding {
	f := Finding{Check: CheckKeywordDensity, Max: 15}
	switch {
	case len(keyword) == 0:
		return f.warn(0, "no focus keyword given")
	case density >= 0.5 && density <= 2.5:
		return f.pass(15, "keyword density is %.2f%%", density)
	case density > 2.5:
		return f.warn(7, "keyword density is %.2f%%; above 2.5%% reads as stuffing", density)
	case density > 0:
		return f.warn(7, "keyword density is %.2f%%; aim for 0.5-2.5%%", density)
	default:
		return f.fail("focus keyword does not appear in the body")
	}
}

func checkHeadings(n int) Finding {
	f := Finding{Check: CheckHeadings, Max: 10}
	switch {
	case n >= 2:
		return f.pass(10, "body has %d headings", n)
	case n == 1:
		return f.warn(5, "body has one heading; break it into sections")
	default:
		return f.fail("body has no headings")
	}
}

func checkLinks(n int) Finding {
	f := Finding{Check: CheckLinks, Max: 10}
	if n > 0 {
		return f.pass(10, "body has %d links", n)
	}
	return f.fail("body has no links")
}

func (f Finding) pass(points int, format string, args ...any) Finding {
	f.Status, f.Points, f.Message = StatusPass, points, fmt.Sprintf(format, args...)
	return f
}

func (f Finding) warn(points int, format string, args ...any) Finding {
	f.Status, f.Points, f.Message = StatusWarn, points, fmt.Sprintf(format, args...)
	return f
}

func (f Finding) fail(format string, args ...any) Finding {
	f.Status, f.Points, f.Message = StatusFail, 0, fmt.Sprintf(format, args...)
	return f
}

// tokenize lower-cases s and splits it into letter/digit words.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// countPhrase counts non-overlapping occurrences of phrase in words.
func countPhrase(words, phrase []string) int {
	if len(phrase) == 0 {
		return 0
	}
	count := 0
	for i := 0; i+len(phrase) <= len(words); {
		match := true
		for j := range phrase {
			if words[i+j] != phrase[j] {
				match = false
				break
			}
		}
		if match {
			count++
			i += len(phrase)
			continue
		}
		i++
	}
	return count
}

// countHeadings counts ATX Markdown headings.
func countHeadings(body string) int {
	n := 0
	for line := range strings.Lines(body) {
		trimmed := strings.TrimLeft(line, " ")
		hashes := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
		if hashes >= 1 && hashes <= 6 && len(trimmed) > hashes && trimmed[hashes] == ' ' {
			n++
		}
	}
	return n
}

func (in *Input) Validate() error { return validation.Validate(in) }
