// Package postgres persists leads in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"arq/internal/leads/models"
	"arq/pkg/platform/sentinel"
)

// Store persists leads. A Store without a *sql.DB reports every call as
// unavailable so callers can surface 503 only where the data is needed.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var errNoDatabase = fmt.Errorf("database not configured: %w", sentinel.ErrUnavailable)

const selectColumns = `id, kind, name, email, company, phone, website, message, resource,
	source_page, client_ip_prefix, device, analysis, created_at`

func (s *Store) Create(ctx context.Context, lead *models.Lead) error {
	if s.db == nil {
		return errNoDatabase
	}
	if lead == nil {
		return fmt.Errorf("lead is required")
	}
	var analysis []byte
	if lead.Analysis != nil {
		var err error
		if analysis, err = json.Marshal(lead.Analysis); err != nil {
			return fmt.Errorf("encode analysis: %w", err)
		}
	}
	query := `
		INSERT INTO leads (id, kind, name, email, company, phone, website, message, resource,
			source_page, client_ip_prefix, device, analysis, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		lead.ID,
		string(lead.Kind),
		lead.Name,
		lead.Email,
		lead.Company,
		lead.Phone,
		lead.Website,
		lead.Message,
		lead.Resource,
		lead.SourcePage,
		lead.ClientIPPrefix,
		lead.Device,
		analysis,
		lead.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("newsletter email already subscribed: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, kind models.Kind, limit int) ([]*models.Lead, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	if limit <= 0 || limit > models.ListLimit {
		limit = models.ListLimit
	}
	query := `SELECT ` + selectColumns + ` FROM leads
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	var out []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if s.db == nil {
		return errNoDatabase
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lead rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) CountByKind(ctx context.Context) (models.Stats, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM leads GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	stats := make(models.Stats, len(models.Kinds))
	for _, k := range models.Kinds {
		stats[k] = 0
	}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan lead count: %w", err)
		}
		stats[models.Kind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	return stats, nil
}

type leadRow interface {
	Scan(dest ...any) error
}

func scanLead(row leadRow) (*models.Lead, error) {
	var lead models.Lead
	var kind string
	var analysis []byte
	if err := row.Scan(
		&lead.ID,
		&kind,
		&lead.Name,
		&lead.Email,
		&lead.Company,
		&lead.Phone,
		&lead.Website,
		&lead.Message,
		&lead.Resource,
		&lead.SourcePage,
		&lead.ClientIPPrefix,
		&lead.Device,
		&analysis,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	lead.Kind = models.Kind(kind)
	if len(analysis) > 0 {
		var a models.Analysis
		if err := json.Unmarshal(analysis, &a); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		lead.Analysis = &a
	}
	return &lead, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
