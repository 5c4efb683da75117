// Package memory is the in-process keyword research cache.
package memory

import (
	"context"
	"sync"

	"arq/internal/keywords/models"
	"arq/pkg/platform/sentinel"
)

type Store struct {
	mu      sync.RWMutex
	results map[string]models.Result
}

func New() *Store {
	return &Store{results: make(map[string]models.Result)}
}

// Get returns the cached result whatever its age; freshness is the
// caller's decision.
func (s *Store) Get(_ context.Context, keyword string) (*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[keyword]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r.Related = append([]models.Related{}, r.Related...)
	return &r, nil
}

// Put replaces the cached result for result.Keyword.
func (s *Store) Put(_ context.Context, result *models.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *result
	r.Cached = false
	r.Related = append([]models.Related{}, result.Related...)
	s.results[r.Keyword] = r
	return nil
}
