// Package memory is the in-process content store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"arq/internal/content/models"
	"arq/pkg/platform/sentinel"
)

type Store struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*models.Item
}

func New() *Store {
	return &Store{items: make(map[uuid.UUID]*models.Item)}
}

func clone(item *models.Item) *models.Item {
	c := *item
	c.Keywords = append([]string{}, item.Keywords...)
	if item.EventAt != nil {
		at := *item.EventAt
		c.EventAt = &at
	}
	return &c
}

func (s *Store) slugTakenLocked(slug string, except uuid.UUID) bool {
	for id, existing := range s.items {
		if id != except && existing.Slug == slug {
			return true
		}
	}
	return false
}

func (s *Store) Create(_ context.Context, item *models.Item) error {
	if item == nil {
		return fmt.Errorf("content item is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slugTakenLocked(item.Slug, item.ID) {
		return fmt.Errorf("slug %q: %w", item.Slug, sentinel.ErrConflict)
	}
	s.items[item.ID] = clone(item)
	return nil
}

func (s *Store) Update(_ context.Context, item *models.Item) error {
	if item == nil {
		return fmt.Errorf("content item is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.slugTakenLocked(item.Slug, item.ID) {
		return fmt.Errorf("slug %q: %w", item.Slug, sentinel.ErrConflict)
	}
	s.items[item.ID] = clone(item)
	return nil
}

func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(item), nil
}

func (s *Store) FindBySlug(_ context.Context, slug string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.Slug == slug {
			return clone(item), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns matching items newest first.
func (s *Store) List(_ context.Context, f models.Filter) ([]*models.Item, error) {
	limit := f.Limit
	if limit <= 0 || limit > models.ListLimit {
		limit = models.ListLimit
	}
	s.mu.RLock()
	out := make([]*models.Item, 0, len(s.items))
	for _, item := range s.items {
		if f.Type != "" && item.Type != f.Type {
			continue
		}
		if f.PublishedOnly && !item.Published {
			continue
		}
		out = append(out, clone(item))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountByType(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(models.Stats, len(models.Types))
	for _, t := range models.Types {
		stats[t] = 0
	}
	for _, item := range s.items {
		stats[item.Type]++
	}
	return stats, nil
}
