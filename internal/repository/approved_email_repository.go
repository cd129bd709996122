package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tuntikone/workforce-backend/internal/model"
)

// ApprovedEmailRepo persists the pre-approved registration entries.
type ApprovedEmailRepo struct{ db DBTX }

func NewApprovedEmailRepo(db DBTX) *ApprovedEmailRepo { return &ApprovedEmailRepo{db: db} }

const approvedColumns = "id, company_id, email, role, used_at, created_at"

func scanApproval(row interface{ Scan(...any) error }) (*model.ApprovedEmail, error) {
	var (
		a      model.ApprovedEmail
		role   string
		usedAt sql.NullTime
	)
	err := row.Scan(&a.ID, &a.CompanyID, &a.Email, &role, &usedAt, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Role = model.Role(role)
	if usedAt.Valid {
		t := usedAt.Time
		a.UsedAt = &t
	}
	return &a, nil
}

// FindApprovalByEmail fetches the entry for a normalized email,
// consumed or not.
func (r *ApprovedEmailRepo) FindApprovalByEmail(ctx context.Context, email string) (*model.ApprovedEmail, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+approvedColumns+" FROM approved_emails WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanApproval(row)
}

// ListApprovalsByCompany returns every entry belonging to a company.
func (r *ApprovedEmailRepo) ListApprovalsByCompany(ctx context.Context, companyID uint64) ([]model.ApprovedEmail, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+approvedColumns+" FROM approved_emails WHERE company_id=? ORDER BY email", companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ApprovedEmail
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CreateApproval inserts an entry and fills in its generated ID.
// Returns ErrDuplicate when the email already has one.
func (r *ApprovedEmailRepo) CreateApproval(ctx context.Context, a *model.ApprovedEmail) error {
	a.Email = NormalizeEmail(a.Email)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO approved_emails (company_id, email, role) VALUES (?,?,?)",
		a.CompanyID, a.Email, string(a.Role))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ConsumeApproval stamps the entry as used by a registration. The
// WHERE guard makes consumption single-shot: of two concurrent
// registrations for the same email, exactly one update matches and the
// loser gets ErrNotFound.
func (r *ApprovedEmailRepo) ConsumeApproval(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE approved_emails SET used_at=UTC_TIMESTAMP() WHERE id=? AND used_at IS NULL", id)
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

// UpdateApprovalRole changes the role the entry grants.
func (r *ApprovedEmailRepo) UpdateApprovalRole(ctx context.Context, id uint64, role model.Role) error {
	return r.execOne(ctx, "UPDATE approved_emails SET role=? WHERE id=?", string(role), id)
}

// UpdateApprovalEmail renames the entry. Returns ErrDuplicate when the
// new email already has an entry.
func (r *ApprovedEmailRepo) UpdateApprovalEmail(ctx context.Context, id uint64, email string) error {
	err := r.execOne(ctx, "UPDATE approved_emails SET email=? WHERE id=?", NormalizeEmail(email), id)
	if err != nil && isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteApproval removes an entry. Returns ErrNotFound when no row was
// removed.
func (r *ApprovedEmailRepo) DeleteApproval(ctx context.Context, id uint64) error {
	return r.execOne(ctx, "DELETE FROM approved_emails WHERE id=?", id)
}

func (r *ApprovedEmailRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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
