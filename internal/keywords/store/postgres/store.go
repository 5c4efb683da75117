// Package postgres caches keyword research in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"arq/internal/keywords/models"
	"arq/pkg/platform/sentinel"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var errNoDatabase = fmt.Errorf("database not configured: %w", sentinel.ErrUnavailable)

// cachedResult is the JSONB payload; keyword and fetched_at live in
// their own columns.
type cachedResult struct {
	SearchVolume int              `json:"search_volume"`
	Difficulty   int              `json:"difficulty"`
	CPC          float64          `json:"cpc"`
	Competition  float64          `json:"competition"`
	Related      []models.Related `json:"related"`
}

func (s *Store) Get(ctx context.Context, keyword string) (*models.Result, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	var payload []byte
	result := &models.Result{Keyword: keyword}
	err := s.db.QueryRowContext(ctx,
		`SELECT result, fetched_at FROM keyword_cache WHERE keyword = $1`, keyword,
	).Scan(&payload, &result.FetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read keyword cache: %w", err)
	}
	var cached cachedResult
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, fmt.Errorf("decode keyword cache: %w", err)
	}
	result.SearchVolume = cached.SearchVolume
	result.Difficulty = cached.Difficulty
	result.CPC = cached.CPC
	result.Competition = cached.Competition
	result.Related = cached.Related
	if result.Related == nil {
		result.Related = []models.Related{}
	}
	return result, nil
}

func (s *Store) Put(ctx context.Context, result *models.Result) error {
	if s.db == nil {
		return errNoDatabase
	}
	payload, err := json.Marshal(cachedResult{
		SearchVolume: result.SearchVolume,
		Difficulty:   result.Difficulty,
		CPC:          result.CPC,
		Competition:  result.Competition,
		Related:      result.Related,
	})
	if err != nil {
		return fmt.Errorf("encode keyword cache: %w", err)
	}
	query := `
		INSERT INTO keyword_cache (keyword, result, fetched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (keyword) DO UPDATE SET result = EXCLUDED.result, fetched_at = EXCLUDED.fetched_at
	`
	if _, err := s.db.ExecContext(ctx, query, result.Keyword, payload, result.FetchedAt); err != nil {
		return fmt.Errorf("write keyword cache: %w", err)
	}
	return nil
}
