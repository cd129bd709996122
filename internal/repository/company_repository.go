package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tuntikone/workforce-backend/internal/model"
)

// CompanyRepo reads and updates tenant records. The settings document
// is stored as a JSON column and surfaced as a map.
type CompanyRepo struct{ db DBTX }

func NewCompanyRepo(db DBTX) *CompanyRepo { return &CompanyRepo{db: db} }

// FindCompanyByID fetches a tenant. A NULL settings column comes back
// as an empty map, never nil.
func (r *CompanyRepo) FindCompanyByID(ctx context.Context, id uint64) (*model.Company, error) {
	var (
		c   model.Company
		raw sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, settings, created_at, updated_at FROM companies WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &raw, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Settings = map[string]any{}
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &c.Settings); err != nil {
			return nil, fmt.Errorf("decode company %d settings: %w", id, err)
		}
	}
	return &c, nil
}

// UpdateCompanySettings replaces the tenant's settings document.
func (r *CompanyRepo) UpdateCompanySettings(ctx context.Context, id uint64, settings map[string]any) error {
	if settings == nil {
		settings = map[string]any{}
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode company %d settings: %w", id, err)
	}
	res, err := r.db.ExecContext(ctx, "UPDATE companies SET settings=? WHERE id=?", string(raw), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
