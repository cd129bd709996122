package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tuntikone/workforce-backend/internal/model"
)

// RefreshTokenRepo is the persisted ledger of issued refresh tokens.
// Issuing never displaces a user's other rows; multiple concurrent
// sessions per account are allowed by design.
type RefreshTokenRepo struct{ db DBTX }

func NewRefreshTokenRepo(db DBTX) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

// StoreRefreshToken inserts a ledger row and fills in its generated ID.
func (r *RefreshTokenRepo) StoreRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		t.UserID, t.Token, t.ExpiresAt)
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
	t.ID = uint64(id)
	return nil
}

// FindRefreshToken looks a presented token up in the ledger.
func (r *RefreshTokenRepo) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token=? LIMIT 1",
		token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// DeleteRefreshToken revokes a single ledger entry.
func (r *RefreshTokenRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token=?", token)
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

// DeleteAllRefreshTokens revokes every ledger entry owned by the user.
// Deleting zero rows is not an error; logout is idempotent. Callers
// that need atomicity against a concurrent issue hold the user row
// lock (UserRepo.LockUser) in the same transaction.
func (r *RefreshTokenRepo) DeleteAllRefreshTokens(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

// DeleteExpiredRefreshTokens sweeps rows whose expiry has passed.
// Correctness never depends on this; it is storage hygiene only.
func (r *RefreshTokenRepo) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= ?", before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
