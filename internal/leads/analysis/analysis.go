// Package analysis triages lead messages with the AI provider.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"arq/internal/ai"
	"arq/internal/leads/models"
)

// Completer is the AI capability the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, p ai.Prompt) (string, error)
}

const systemPrompt = `You triage inbound B2B leads. Reply with a JSON object:
{"summary": string (one sentence), "intent": one of "sales","partnership","support","other",
"priority": one of "low","medium","high", "score": integer 0-100 (purchase readiness)}.`

// maxMessageChars bounds how much of a message is sent for analysis.
const maxMessageChars = 4000

// Analyzer turns a lead into an Analysis.
type Analyzer struct {
	ai Completer
}

func New(completer Completer) *Analyzer {
	return &Analyzer{ai: completer}
}

// Analyze returns the triage for lead. Callers bound ctx; errors are never
// fatal to a submission.
func (a *Analyzer) Analyze(ctx context.Context, lead *models.Lead) (*models.Analysis, error) {
	raw, err := a.ai.Complete(ctx, ai.Prompt{
		System:      systemPrompt,
		User:        userPrompt(lead),
		MaxTokens:   300,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func userPrompt(lead *models.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Form: %s\n", lead.Kind)
	if lead.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", lead.Company)
	}
	if lead.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", lead.Website)
	}
	if lead.SourcePage != "" {
		fmt.Fprintf(&b, "Submitted from: %s\n", lead.SourcePage)
	}
	message := lead.Message
	if len(message) > maxMessageChars {
		message = message[:maxMessageChars]
	}
	fmt.Fprintf(&b, "Message:\n%s", message)
	return b.String()
}

// Parse decodes a provider reply, tolerating Markdown code fences, and
// normalises priority and score.
func Parse(raw string) (*models.Analysis, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var a models.Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	a.Summary = strings.TrimSpace(a.Summary)
	a.Intent = strings.ToLower(strings.TrimSpace(a.Intent))
	if a.Intent == "" {
		a.Intent = "other"
	}
	a.Score = max(0, min(100, a.Score))
	switch models.Priority(strings.ToLower(string(a.Priority))) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		a.Priority = models.Priority(strings.ToLower(string(a.Priority)))
	default:
		a.Priority = priorityFromScore(a.Score)
	}
	return &a, nil
}

func priorityFromScore(score int) models.Priority {
	switch {
	case score >= 70:
		return models.PriorityHigh
	case score >= 40:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
