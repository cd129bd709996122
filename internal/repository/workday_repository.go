package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tuntikone/workforce-backend/internal/model"
)

// WorkDayRepo persists reported shift entries.
type WorkDayRepo struct{ db DBTX }

func NewWorkDayRepo(db DBTX) *WorkDayRepo { return &WorkDayRepo{db: db} }

const workDayColumns = "id, user_id, work_date, start_time, end_time, breaks_min, description, created_at, updated_at"

func scanWorkDay(row interface{ Scan(...any) error }) (*model.WorkDay, error) {
	var (
		w       model.WorkDay
		endTime sql.NullString
		desc    sql.NullString
	)
	err := row.Scan(&w.ID, &w.UserID, &w.Date, &w.StartTime, &endTime, &w.BreaksMin, &desc, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if endTime.Valid {
		v := endTime.String
		w.EndTime = &v
	}
	if desc.Valid {
		v := desc.String
		w.Description = &v
	}
	return &w, nil
}

// CreateWorkDay inserts a shift entry and fills in its generated ID.
// Returns ErrDuplicate when the user already reported that date.
func (r *WorkDayRepo) CreateWorkDay(ctx context.Context, w *model.WorkDay) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO work_days (user_id, work_date, start_time, end_time, breaks_min, description) VALUES (?,?,?,?,?,?)",
		w.UserID, w.Date.Format("2006-01-02"), w.StartTime, w.EndTime, w.BreaksMin, w.Description)
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
	w.ID = uint64(id)
	return nil
}

// FindWorkDayByID fetches a single shift entry.
func (r *WorkDayRepo) FindWorkDayByID(ctx context.Context, id uint64) (*model.WorkDay, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+workDayColumns+" FROM work_days WHERE id=? LIMIT 1", id)
	return scanWorkDay(row)
}

// FindWorkDayByDate fetches the user's entry for one calendar date.
func (r *WorkDayRepo) FindWorkDayByDate(ctx context.Context, userID uint64, date time.Time) (*model.WorkDay, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+workDayColumns+" FROM work_days WHERE user_id=? AND work_date=? LIMIT 1",
		userID, date.Format("2006-01-02"))
	return scanWorkDay(row)
}

// ListWorkDaysByUser returns a user's entries, most recent date first.
func (r *WorkDayRepo) ListWorkDaysByUser(ctx context.Context, userID uint64) ([]model.WorkDay, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+workDayColumns+" FROM work_days WHERE user_id=? ORDER BY work_date DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWorkDays(rows)
}

// ListWorkDaysByCompany returns every entry reported by a company's
// workers, most recent date first.
func (r *WorkDayRepo) ListWorkDaysByCompany(ctx context.Context, companyID uint64) ([]model.WorkDay, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT w.id, w.user_id, w.work_date, w.start_time, w.end_time, w.breaks_min, w.description, w.created_at, w.updated_at "+
			"FROM work_days w JOIN users u ON u.id = w.user_id WHERE u.company_id=? ORDER BY w.work_date DESC, w.user_id",
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWorkDays(rows)
}

func collectWorkDays(rows *sql.Rows) ([]model.WorkDay, error) {
	var out []model.WorkDay
	for rows.Next() {
		w, err := scanWorkDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// UpdateWorkDay rewrites the mutable fields of an entry.
func (r *WorkDayRepo) UpdateWorkDay(ctx context.Context, w *model.WorkDay) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE work_days SET start_time=?, end_time=?, breaks_min=?, description=? WHERE id=?",
		w.StartTime, w.EndTime, w.BreaksMin, w.Description, w.ID)
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

// DeleteWorkDaysBefore removes every entry dated strictly before the
// cutoff. Retention hygiene; deleting zero rows is fine.
func (r *WorkDayRepo) DeleteWorkDaysBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM work_days WHERE work_date < ?", before.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteWorkDay removes an entry.
func (r *WorkDayRepo) DeleteWorkDay(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM work_days WHERE id=?", id)
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
