package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. It
// lets one repository type run both standalone and inside a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles every repository over one database handle. Embedding
// promotes all repository methods onto Store, so a single value serves
// as the persistence surface for the service layer. WithTx is the
// transactional boundary for mutations that must touch several stores
// atomically (register, delete-with-approval, password change).
type Store struct {
	db *sql.DB

	*UserRepo
	*ApprovedEmailRepo
	*RefreshTokenRepo
	*CompanyRepo
	*WorkDayRepo
}

// NewStore wires all repositories onto db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                db,
		UserRepo:          NewUserRepo(db),
		ApprovedEmailRepo: NewApprovedEmailRepo(db),
		RefreshTokenRepo:  NewRefreshTokenRepo(db),
		CompanyRepo:       NewCompanyRepo(db),
		WorkDayRepo:       NewWorkDayRepo(db),
	}
}

// WithTx runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise, so
// a crash or concurrent reader never observes a partially-applied
// multi-store mutation.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txStore := &Store{
		UserRepo:          NewUserRepo(tx),
		ApprovedEmailRepo: NewApprovedEmailRepo(tx),
		RefreshTokenRepo:  NewRefreshTokenRepo(tx),
		CompanyRepo:       NewCompanyRepo(tx),
		WorkDayRepo:       NewWorkDayRepo(tx),
	}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
