package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tuntikone/workforce-backend/internal/model"
)

// UserRepo persists user accounts.
type UserRepo struct{ db DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, company_id, email, password_hash, first_name, last_name, phone_number, role, created_at, updated_at"

// NormalizeEmail lowercases and trims an email so lookups and unique
// constraints agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u     model.User
		phone sql.NullString
		role  string
	)
	err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &phone, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if phone.Valid {
		p := phone.String
		u.PhoneNumber = &p
	}
	u.Role = model.Role(role)
	return &u, nil
}

// FindUserByEmail fetches an account by normalized email.
func (r *UserRepo) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// FindUserByID fetches an account by id.
func (r *UserRepo) FindUserByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// ListUsersByCompany returns every account belonging to a company.
func (r *UserRepo) ListUsersByCompany(ctx context.Context, companyID uint64) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE company_id=? ORDER BY last_name, first_name", companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// CreateUser inserts an account and fills in its generated ID. Returns
// ErrDuplicate when the email is already taken.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (company_id, email, password_hash, first_name, last_name, phone_number, role) VALUES (?,?,?,?,?,?,?)",
		u.CompanyID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber, string(u.Role))
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
	u.ID = uint64(id)
	return nil
}

// UpdateUserPassword replaces the stored credential hash.
func (r *UserRepo) UpdateUserPassword(ctx context.Context, id uint64, hash string) error {
	return r.execOne(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
}

// UpdateUserRole replaces the account's role.
func (r *UserRepo) UpdateUserRole(ctx context.Context, id uint64, role model.Role) error {
	return r.execOne(ctx, "UPDATE users SET role=? WHERE id=?", string(role), id)
}

// UpdateUserEmail replaces the account's email. Returns ErrDuplicate
// when the new email is already taken.
func (r *UserRepo) UpdateUserEmail(ctx context.Context, id uint64, email string) error {
	err := r.execOne(ctx, "UPDATE users SET email=? WHERE id=?", NormalizeEmail(email), id)
	if err != nil && isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteUser removes an account. Refresh tokens and work days cascade
// at the schema level. Returns ErrNotFound when no row was removed.
func (r *UserRepo) DeleteUser(ctx context.Context, id uint64) error {
	return r.execOne(ctx, "DELETE FROM users WHERE id=?", id)
}

// LockUser takes a row lock on the account for the duration of the
// surrounding transaction. Both refresh-token issue and revoke-all run
// under this lock so a revoke-all that commits after an in-flight issue
// still covers that token. Calling it outside a transaction is a no-op
// lock-wise.
func (r *UserRepo) LockUser(ctx context.Context, id uint64) error {
	var got uint64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
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
