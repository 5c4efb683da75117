// Package admin serves the back-office dashboard summary.
package admin

import (
	"context"
	"log/slog"
	"time"

	contentmodels "arq/internal/content/models"
	leadmodels "arq/internal/leads/models"
	"arq/internal/ratelimit/config"
	"arq/internal/ratelimit/models"
)

// LeadCounter counts leads per kind.
type LeadCounter interface {
	Stats(ctx context.Context) (leadmodels.Stats, error)
}

// ContentCounter counts content items per type.
type ContentCounter interface {
	Stats(ctx context.Context) (contentmodels.Stats, error)
}

// Service assembles the dashboard numbers.
type Service struct {
	leads    LeadCounter
	content  ContentCounter
	policies *config.Config
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(leads LeadCounter, content ContentCounter, policies *config.Config, logger *slog.Logger) *Service {
	if policies == nil {
		policies = config.DefaultConfig()
	}
	return &Service{
		leads:    leads,
		content:  content,
		policies: policies,
		logger:   logger,
		now:      time.Now,
	}
}

// Stats is the dashboard summary.
type Stats struct {
	Leads        leadmodels.Stats    `json:"leads"`
	TotalLeads   int                 `json:"total_leads"`
	Content      contentmodels.Stats `json:"content"`
	TotalContent int                 `json:"total_content"`
	Timestamp    time.Time           `json:"timestamp"`
}

// GetStats counts leads and content. Either store failing fails the call;
// the dashboard has nothing to show without them.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	leads, err := s.leads.Stats(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.content.Stats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Leads: leads, Content: content, Timestamp: s.now().UTC()}
	for _, n := range leads {
		stats.TotalLeads += n
	}
	for _, n := range content {
		stats.TotalContent += n
	}
	return stats, nil
}

// PolicyView is one row of the effective rate-limit table.
type PolicyView struct {
	Class         models.EndpointClass `json:"class"`
	MaxRequests   int                  `json:"max_requests"`
	WindowSeconds int                  `json:"window_seconds"`
	Policy        string               `json:"policy"`
}

// Policies lists the effective rate-limit table in class order.
func (s *Service) Policies() []PolicyView {
	classes := s.policies.Sorted()
	out := make([]PolicyView, 0, len(classes))
	for _, class := range classes {
		p, _ := s.policies.Policy(class)
		out = append(out, PolicyView{
			Class:         class,
			MaxRequests:   p.MaxRequests,
			WindowSeconds: int(p.Window.Seconds()),
			Policy:        p.String(),
		})
	}
	return out
}
