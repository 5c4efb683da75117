package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"arq/internal/leads/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates renders the team alert and the submitter confirmation.
// HTML bodies are escaped by html/template; text bodies are plain.
type Templates struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func LoadTemplates() (*Templates, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &Templates{html: html, text: text}, nil
}

// view is the data passed to every template.
type view struct {
	Lead      *models.Lead
	KindLabel string
	SiteName  string
	FileURL   string
}

// Render executes name (e.g. "team", "confirm") in both formats.
func (t *Templates) Render(name string, data view) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := t.html.ExecuteTemplate(&hb, name+".html.tmpl", data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	if err := t.text.ExecuteTemplate(&tb, name+".txt.tmpl", data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	return hb.String(), strings.TrimSpace(tb.String()), nil
}

func kindLabel(k models.Kind) string {
	switch k {
	case models.KindContact:
		return "Contact request"
	case models.KindPartner:
		return "Partner application"
	case models.KindNewsletter:
		return "Newsletter sign-up"
	case models.KindDownload:
		return "Resource download"
	default:
		return string(k)
	}
}
