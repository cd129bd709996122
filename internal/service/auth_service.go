package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/queue"
	"github.com/tuntikone/workforce-backend/internal/repository"
	"github.com/tuntikone/workforce-backend/internal/utils"
)

// EventPublisher delivers audit events to the broker. Publishing is
// best effort; the auth flows never fail because the broker is down.
type EventPublisher interface {
	PublishAuthEvent(ctx context.Context, ev queue.AuthEvent) error
}

// AuthService orchestrates login, registration, token refresh and
// revocation over the stores. It is stateless; any number of requests
// may run concurrently, and every multi-store mutation goes through a
// single transaction via the TxRunner.
type AuthService struct {
	ds     Datastore
	tx     TxRunner
	codec  *utils.TokenCodec
	cost   int
	events EventPublisher
	now    func() time.Time
}

// NewAuthService wires the service. events may be nil to disable audit
// publishing.
func NewAuthService(ds Datastore, tx TxRunner, codec *utils.TokenCodec, bcryptCost int, events EventPublisher) *AuthService {
	return &AuthService{
		ds:     ds,
		tx:     tx,
		codec:  codec,
		cost:   bcryptCost,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RegisterParams carries the fields a new account is created from. The
// role and company are never client-supplied; they come from the
// consumed approval entry.
type RegisterParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber *string
}

// LoginResult is the client bootstrap snapshot returned on a
// successful login.
type LoginResult struct {
	User            *model.User
	Access          utils.Token
	Refresh         utils.Token
	CompanyName     string
	CompanySettings map[string]any
}

// Register creates an account from a pre-approved entry. The entry is
// consumed and the account created in one transaction, so registration
// is all-or-nothing and concurrent attempts for the same email
// serialize: exactly one succeeds, the rest fail with ErrEmailInUse.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*model.User, error) {
	email := repository.NormalizeEmail(p.Email)
	var created *model.User
	err := s.inTx(ctx, func(tx Datastore) error {
		entry, err := tx.FindApprovalByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotApproved
			}
			return storagef("find approval", err)
		}
		if _, err := tx.FindUserByEmail(ctx, email); err == nil {
			return ErrEmailInUse
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storagef("find user", err)
		}
		if err := tx.ConsumeApproval(ctx, entry.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Entry was consumed by a concurrent registration.
				return ErrEmailInUse
			}
			return storagef("consume approval", err)
		}
		hash, err := utils.HashPassword(p.Password, s.cost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u := &model.User{
			CompanyID:    entry.CompanyID,
			Email:        email,
			PasswordHash: hash,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			PhoneNumber:  p.PhoneNumber,
			Role:         entry.Role,
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailInUse
			}
			return storagef("create user", err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, queue.AuthEvent{
		Kind:      queue.EventUserRegistered,
		UserID:    created.ID,
		Email:     created.Email,
		CompanyID: created.CompanyID,
		Role:      string(created.Role),
	})
	return created, nil
}

// Login verifies credentials and opens a new session: one access token
// and one persisted refresh token. An unknown email and a wrong
// password report the same ErrInvalidCredentials. Prior sessions stay
// alive; each login adds an independent ledger entry.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.ds.FindUserByEmail(ctx, repository.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, storagef("find user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	access, err := s.codec.IssueAccess(u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.IssueRefresh(u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	err = s.inTx(ctx, func(tx Datastore) error {
		// Lock orders this issue against a concurrent revoke-all: an
		// issue that starts before a revoke-all commits cannot leave a
		// live entry behind.
		if err := tx.LockUser(ctx, u.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return storagef("lock user", err)
		}
		t := &model.RefreshToken{UserID: u.ID, Token: refresh.Value, ExpiresAt: refresh.Exp}
		if err := tx.StoreRefreshToken(ctx, t); err != nil {
			return storagef("store refresh token", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	company, err := s.ds.FindCompanyByID(ctx, u.CompanyID)
	if err != nil {
		return nil, storagef("find company", err)
	}
	s.publish(ctx, queue.AuthEvent{
		Kind:      queue.EventUserLoggedIn,
		UserID:    u.ID,
		Email:     u.Email,
		CompanyID: u.CompanyID,
		Role:      string(u.Role),
	})
	return &LoginResult{
		User:            u,
		Access:          access,
		Refresh:         refresh,
		CompanyName:     company.Name,
		CompanySettings: company.Settings,
	}, nil
}

// Refresh exchanges a live refresh token for a new access token. The
// presented token must carry a valid signature, match a ledger entry
// that has not lapsed, and resolve to the account it was issued to.
// The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, presented string) (utils.Token, error) {
	claims, err := s.codec.Verify(presented)
	if err != nil {
		return utils.Token{}, ErrInvalidToken
	}
	entry, err := s.ds.FindRefreshToken(ctx, utils.StripBearer(presented))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.Token{}, ErrInvalidToken
		}
		return utils.Token{}, storagef("find refresh token", err)
	}
	if entry.Expired(s.now()) {
		return utils.Token{}, ErrTokenExpired
	}
	u, err := s.ds.FindUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.Token{}, ErrUserNotFound
		}
		return utils.Token{}, storagef("find user", err)
	}
	if entry.UserID != u.ID {
		return utils.Token{}, ErrInvalidToken
	}
	access, err := s.codec.IssueAccess(u.Email, u.Role)
	if err != nil {
		return utils.Token{}, fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

// Logout revokes every refresh token the account owns. Revoking an
// account with no live tokens is a no-op, not an error.
func (s *AuthService) Logout(ctx context.Context, user *model.User) error {
	err := s.inTx(ctx, func(tx Datastore) error {
		return s.revokeAll(ctx, tx, user.ID)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, queue.AuthEvent{
		Kind:   queue.EventSessionsRevoked,
		UserID: user.ID,
		Email:  user.Email,
		Reason: "logout",
	})
	return nil
}

// ChangePassword re-hashes the credential and revokes every refresh
// token in the same transaction: either the password changes and all
// other sessions die, or nothing happens.
func (s *AuthService) ChangePassword(ctx context.Context, user *model.User, newPassword string) error {
	hash, err := utils.HashPassword(newPassword, s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.inTx(ctx, func(tx Datastore) error {
		if err := tx.LockUser(ctx, user.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return storagef("lock user", err)
		}
		if err := tx.UpdateUserPassword(ctx, user.ID, hash); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return storagef("update password", err)
		}
		if err := tx.DeleteAllRefreshTokens(ctx, user.ID); err != nil {
			return storagef("revoke tokens", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, queue.AuthEvent{
		Kind:   queue.EventSessionsRevoked,
		UserID: user.ID,
		Email:  user.Email,
		Reason: "password_change",
	})
	return nil
}

// AssignRole changes an account's role. The actor needs SUPERVISOR
// rank, may never grant a role above its own, may only touch accounts
// in its own company and may not change its own role. If an approval
// entry still exists for the email its role is updated too, so a
// re-registration after account deletion reuses the same entitlement.
func (s *AuthService) AssignRole(ctx context.Context, actor *model.User, targetID uint64, newRole model.Role) error {
	if !actor.Role.AtLeast(model.RoleSupervisor) || !actor.Role.CanGrant(newRole) {
		return ErrForbidden
	}
	var target *model.User
	err := s.inTx(ctx, func(tx Datastore) error {
		t, err := tx.FindUserByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return storagef("find user", err)
		}
		if t.CompanyID != actor.CompanyID || t.ID == actor.ID {
			return ErrForbidden
		}
		if err := tx.UpdateUserRole(ctx, t.ID, newRole); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return storagef("update role", err)
		}
		if entry, err := tx.FindApprovalByEmail(ctx, t.Email); err == nil {
			if err := tx.UpdateApprovalRole(ctx, entry.ID, newRole); err != nil {
				return storagef("update approval role", err)
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storagef("find approval", err)
		}
		target = t
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, queue.AuthEvent{
		Kind:      queue.EventRoleChanged,
		UserID:    target.ID,
		Email:     target.Email,
		CompanyID: target.CompanyID,
		Role:      string(newRole),
		ActorID:   actor.ID,
	})
	return nil
}

// DeleteAccountAndApproval removes an account together with its
// approval entry. MASTER only, same company only. Both deletions run
// in one transaction; if either row turns out not to be removable the
// whole operation rolls back with ErrConflict so the two stores never
// diverge.
func (s *AuthService) DeleteAccountAndApproval(ctx context.Context, actor *model.User, targetID uint64) error {
	if !actor.Role.AtLeast(model.RoleMaster) {
		return ErrForbidden
	}
	var target *model.User
	err := s.inTx(ctx, func(tx Datastore) error {
		t, err := tx.FindUserByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return storagef("find user", err)
		}
		if t.CompanyID != actor.CompanyID {
			return ErrForbidden
		}
		entry, err := tx.FindApprovalByEmail(ctx, t.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrConflict
			}
			return storagef("find approval", err)
		}
		if err := tx.DeleteUser(ctx, t.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrConflict
			}
			return storagef("delete user", err)
		}
		if err := tx.DeleteApproval(ctx, entry.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrConflict
			}
			return storagef("delete approval", err)
		}
		target = t
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, queue.AuthEvent{
		Kind:      queue.EventAccountDeleted,
		UserID:    target.ID,
		Email:     target.Email,
		CompanyID: target.CompanyID,
		ActorID:   actor.ID,
	})
	return nil
}

// IdentityFromToken resolves "who is calling and with what role" from
// a presented access token. This is the entry point other subsystems
// use to gate privileged operations.
func (s *AuthService) IdentityFromToken(ctx context.Context, presented string) (*model.User, error) {
	claims, err := s.codec.Verify(presented)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	u, err := s.ds.FindUserByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storagef("find user", err)
	}
	return u, nil
}

// SweepExpiredTokens deletes lapsed refresh-token rows. Hygiene only;
// expiry is always re-checked on use.
func (s *AuthService) SweepExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.ds.DeleteExpiredRefreshTokens(ctx, s.now())
	if err != nil {
		return 0, storagef("sweep refresh tokens", err)
	}
	return n, nil
}

func (s *AuthService) revokeAll(ctx context.Context, tx Datastore, userID uint64) error {
	if err := tx.LockUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return storagef("lock user", err)
	}
	if err := tx.DeleteAllRefreshTokens(ctx, userID); err != nil {
		return storagef("revoke tokens", err)
	}
	return nil
}

// inTx runs fn through the TxRunner and normalizes transaction-level
// failures (begin/commit) to ErrStorage.
func (s *AuthService) inTx(ctx context.Context, fn func(tx Datastore) error) error {
	if err := s.tx(ctx, fn); err != nil {
		if policyError(err) || errors.Is(err, ErrStorage) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, ev queue.AuthEvent) {
	if s.events == nil {
		return
	}
	ev.At = s.now().Format(time.RFC3339)
	_ = s.events.PublishAuthEvent(ctx, ev)
}

func policyError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidCredentials, ErrNotApproved, ErrAlreadyApproved, ErrEmailInUse,
		ErrInvalidToken, ErrTokenExpired, ErrUserNotFound, ErrForbidden, ErrConflict,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
