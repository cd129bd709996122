package service

import (
	"context"
	"time"

	"github.com/tuntikone/workforce-backend/internal/model"
)

// The store interfaces below are the persistence surface the services
// consume. Implementations report a missing row as repository.ErrNotFound
// and a unique-constraint violation as repository.ErrDuplicate;
// anything else is treated as a storage failure.

// UserStore persists accounts.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByID(ctx context.Context, id uint64) (*model.User, error)
	ListUsersByCompany(ctx context.Context, companyID uint64) ([]model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	UpdateUserPassword(ctx context.Context, id uint64, hash string) error
	UpdateUserRole(ctx context.Context, id uint64, role model.Role) error
	UpdateUserEmail(ctx context.Context, id uint64, email string) error
	DeleteUser(ctx context.Context, id uint64) error
	// LockUser takes a per-account lock for the rest of the enclosing
	// transaction, serializing refresh-token issue against revoke-all.
	LockUser(ctx context.Context, id uint64) error
}

// ApprovalStore persists pre-approved registration entries.
type ApprovalStore interface {
	FindApprovalByEmail(ctx context.Context, email string) (*model.ApprovedEmail, error)
	ListApprovalsByCompany(ctx context.Context, companyID uint64) ([]model.ApprovedEmail, error)
	CreateApproval(ctx context.Context, a *model.ApprovedEmail) error
	// ConsumeApproval marks the entry used; it fails for an entry that
	// was already consumed, so concurrent registrations serialize.
	ConsumeApproval(ctx context.Context, id uint64) error
	UpdateApprovalRole(ctx context.Context, id uint64, role model.Role) error
	UpdateApprovalEmail(ctx context.Context, id uint64, email string) error
	DeleteApproval(ctx context.Context, id uint64) error
}

// TokenStore is the refresh-token ledger.
type TokenStore interface {
	StoreRefreshToken(ctx context.Context, t *model.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteAllRefreshTokens(ctx context.Context, userID uint64) error
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// CompanyStore reads and updates tenants.
type CompanyStore interface {
	FindCompanyByID(ctx context.Context, id uint64) (*model.Company, error)
	UpdateCompanySettings(ctx context.Context, id uint64, settings map[string]any) error
}

// WorkDayStore persists reported shifts.
type WorkDayStore interface {
	CreateWorkDay(ctx context.Context, w *model.WorkDay) error
	FindWorkDayByID(ctx context.Context, id uint64) (*model.WorkDay, error)
	FindWorkDayByDate(ctx context.Context, userID uint64, date time.Time) (*model.WorkDay, error)
	ListWorkDaysByUser(ctx context.Context, userID uint64) ([]model.WorkDay, error)
	ListWorkDaysByCompany(ctx context.Context, companyID uint64) ([]model.WorkDay, error)
	UpdateWorkDay(ctx context.Context, w *model.WorkDay) error
	DeleteWorkDay(ctx context.Context, id uint64) error
	DeleteWorkDaysBefore(ctx context.Context, before time.Time) (int64, error)
}

// Datastore is the full persistence surface.
type Datastore interface {
	UserStore
	ApprovalStore
	TokenStore
	CompanyStore
	WorkDayStore
}

// TxRunner executes fn inside a single storage transaction, handing it
// a Datastore bound to that transaction. fn returning an error rolls
// the transaction back.
type TxRunner func(ctx context.Context, fn func(tx Datastore) error) error
