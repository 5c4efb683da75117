// Package memory is the in-process lead store used in development when no
// database is configured, and by service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"arq/internal/leads/models"
	"arq/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]*models.Lead
}

func New() *Store {
	return &Store{leads: make(map[uuid.UUID]*models.Lead)}
}

// Create stores a copy of lead. A second newsletter sign-up for the same
// address is a conflict.
func (s *Store) Create(_ context.Context, lead *models.Lead) error {
	if lead == nil {
		return fmt.Errorf("lead is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if lead.Kind == models.KindNewsletter {
		for _, existing := range s.leads {
			if existing.Kind == models.KindNewsletter && strings.EqualFold(existing.Email, lead.Email) {
				return fmt.Errorf("newsletter email already subscribed: %w", sentinel.ErrConflict)
			}
		}
	}
	stored := *lead
	if lead.Analysis != nil {
		analysis := *lead.Analysis
		stored.Analysis = &analysis
	}
	s.leads[lead.ID] = &stored
	return nil
}

// List returns up to limit leads of kind ("" for all), newest first.
func (s *Store) List(_ context.Context, kind models.Kind, limit int) ([]*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		if kind != "" && l.Kind != kind {
			continue
		}
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *Store) CountByKind(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(models.Stats, len(models.Kinds))
	for _, k := range models.Kinds {
		stats[k] = 0
	}
	for _, l := range s.leads {
		stats[l.Kind]++
	}
	return stats, nil
}
