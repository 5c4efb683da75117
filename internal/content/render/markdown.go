// Package render turns stored Markdown bodies into the HTML the site shows.
//
// Raw HTML in the source is dropped and javascript: style links are
// emptied, so admin-authored and AI-drafted bodies are safe to embed.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Markdown renders CommonMark plus GitHub tables, strikethrough, task
// lists and autolinks. Headings get stable ids for in-page anchors.
type Markdown struct {
	md goldmark.Markdown
}

func New() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// HTML renders src. An empty body renders to an empty string.
func (m *Markdown) HTML(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
