// Package postgres persists content in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"arq/internal/content/models"
	"arq/pkg/platform/sentinel"
)

// Store persists content items. Without a *sql.DB every call reports
// unavailable.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var errNoDatabase = fmt.Errorf("database not configured: %w", sentinel.ErrUnavailable)

const selectColumns = `id, type, slug, title, excerpt, body, keywords, file_url, event_at,
	published, created_at, updated_at`

func (s *Store) Create(ctx context.Context, item *models.Item) error {
	if s.db == nil {
		return errNoDatabase
	}
	keywords, err := encodeKeywords(item.Keywords)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO content (id, type, slug, title, excerpt, body, keywords, file_url, event_at,
			published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		item.ID,
		string(item.Type),
		item.Slug,
		item.Title,
		item.Excerpt,
		item.Body,
		keywords,
		item.FileURL,
		item.EventAt,
		item.Published,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", item.Slug, sentinel.ErrConflict)
		}
		return fmt.Errorf("create content: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, item *models.Item) error {
	if s.db == nil {
		return errNoDatabase
	}
	keywords, err := encodeKeywords(item.Keywords)
	if err != nil {
		return err
	}
	query := `
		UPDATE content SET type = $2, slug = $3, title = $4, excerpt = $5, body = $6,
			keywords = $7, file_url = $8, event_at = $9, published = $10, updated_at = $11
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		item.ID,
		string(item.Type),
		item.Slug,
		item.Title,
		item.Excerpt,
		item.Body,
		keywords,
		item.FileURL,
		item.EventAt,
		item.Published,
		item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", item.Slug, sentinel.ErrConflict)
		}
		return fmt.Errorf("update content: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update content rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if s.db == nil {
		return errNoDatabase
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete content rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM content WHERE id = $1`, id)
	return scanOne(row)
}

func (s *Store) FindBySlug(ctx context.Context, slug string) (*models.Item, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM content WHERE slug = $1`, slug)
	return scanOne(row)
}

func (s *Store) List(ctx context.Context, f models.Filter) ([]*models.Item, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	limit := f.Limit
	if limit <= 0 || limit > models.ListLimit {
		limit = models.ListLimit
	}
	query := `SELECT ` + selectColumns + ` FROM content
		WHERE ($1 = '' OR type = $1) AND (NOT $2 OR published)
		ORDER BY created_at DESC
		LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, string(f.Type), f.PublishedOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return out, nil
}

func (s *Store) CountByType(ctx context.Context) (models.Stats, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM content GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count content: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	stats := make(models.Stats, len(models.Types))
	for _, t := range models.Types {
		stats[t] = 0
	}
	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("scan content count: %w", err)
		}
		stats[models.Type(typ)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count content: %w", err)
	}
	return stats, nil
}

type itemRow interface {
	Scan(dest ...any) error
}

func scanOne(row itemRow) (*models.Item, error) {
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find content: %w", err)
	}
	return item, nil
}

func scanItem(row itemRow) (*models.Item, error) {
	var item models.Item
	var typ string
	var keywords []byte
	var eventAt sql.NullTime
	if err := row.Scan(
		&item.ID,
		&typ,
		&item.Slug,
		&item.Title,
		&item.Excerpt,
		&item.Body,
		&keywords,
		&item.FileURL,
		&eventAt,
		&item.Published,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Type = models.Type(typ)
	if eventAt.Valid {
		at := eventAt.Time
		item.EventAt = &at
	}
	item.Keywords = []string{}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &item.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords: %w", err)
		}
	}
	return &item, nil
}

func encodeKeywords(keywords []string) ([]byte, error) {
	if keywords == nil {
		keywords = []string{}
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("encode keywords: %w", err)
	}
	return b, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
