// Package export writes lead listings as CSV for the admin download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"arq/internal/leads/models"
)

// ContentType is the response Content-Type for exports.
const ContentType = "text/csv; charset=utf-8"

// Header is the first CSV row.
var Header = []string{
	"id", "kind", "created_at", "name", "email", "company", "phone", "website",
	"resource", "source_page", "device", "priority", "score", "summary", "message",
}

// Filename returns the attachment name for an export of kind ("" for all).
func Filename(kind models.Kind, now time.Time) string {
	prefix := "leads"
	if kind != "" {
		prefix += "-" + string(kind)
	}
	return prefix + "-" + now.UTC().Format("20060102") + ".csv"
}

// WriteCSV writes leads with a header row.
func WriteCSV(w io.Writer, leads []*models.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, l := range leads {
		var priority, score, summary string
		if l.Analysis != nil {
			priority = string(l.Analysis.Priority)
			score = strconv.Itoa(l.Analysis.Score)
			summary = l.Analysis.Summary
		}
		record := []string{
			l.ID.String(),
			string(l.Kind),
			l.CreatedAt.UTC().Format(time.RFC3339),
			l.Name,
			l.Email,
			l.Company,
			l.Phone,
			l.Website,
			l.Resource,
			l.SourcePage,
			l.Device,
			priority,
			score,
			summary,
			l.Message,
		}
		for i := range record {
			record[i] = escapeFormula(record[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// escapeFormula keeps spreadsheet apps from evaluating submitted text.
func escapeFormula(v string) string {
	if v == "" {
		return v
	}
	if strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
