package service

import (
	"context"
	"errors"

	"github.com/tuntikone/workforce-backend/internal/model"
	"github.com/tuntikone/workforce-backend/internal/repository"
)

// AddApproval pre-approves an email to register with a role under the
// actor's company. SUPERVISOR rank required, and the actor may not
// approve a role above its own.
func (s *AuthService) AddApproval(ctx context.Context, actor *model.User, email string, role model.Role) (*model.ApprovedEmail, error) {
	if !actor.Role.AtLeast(model.RoleSupervisor) || !actor.Role.CanGrant(role) {
		return nil, ErrForbidden
	}
	email = repository.NormalizeEmail(email)
	var entry *model.ApprovedEmail
	err := s.inTx(ctx, func(tx Datastore) error {
		if _, err := tx.FindApprovalByEmail(ctx, email); err == nil {
			return ErrAlreadyApproved
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storagef("find approval", err)
		}
		if _, err := tx.FindUserByEmail(ctx, email); err == nil {
			return ErrEmailInUse
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storagef("find user", err)
		}
		a := &model.ApprovedEmail{CompanyID: actor.CompanyID, Email: email, Role: role}
		if err := tx.CreateApproval(ctx, a); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyApproved
			}
			return storagef("create approval", err)
		}
		entry = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveApproval deletes an approval entry in the actor's company.
// MASTER only.
func (s *AuthService) RemoveApproval(ctx context.Context, actor *model.User, email string) error {
	if !actor.Role.AtLeast(model.RoleMaster) {
		return ErrForbidden
	}
	return s.inTx(ctx, func(tx Datastore) error {
		entry, err := tx.FindApprovalByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotApproved
			}
			return storagef("find approval", err)
		}
		if entry.CompanyID != actor.CompanyID {
			return ErrForbidden
		}
		if err := tx.DeleteApproval(ctx, entry.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotApproved
			}
			return storagef("delete approval", err)
		}
		return nil
	})
}

// RenameApproval moves an entry to a new email. MASTER only. Fails
// with ErrEmailInUse when the new email already belongs to an account
// or to a different entry.
func (s *AuthService) RenameApproval(ctx context.Context, actor *model.User, oldEmail, newEmail string) error {
	if !actor.Role.AtLeast(model.RoleMaster) {
		return ErrForbidden
	}
	newEmail = repository.NormalizeEmail(newEmail)
	return s.inTx(ctx, func(tx Datastore) error {
		entry, err := tx.FindApprovalByEmail(ctx, oldEmail)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotApproved
			}
			return storagef("find approval", err)
		}
		if entry.CompanyID != actor.CompanyID {
			return ErrForbidden
		}
		if _, err := tx.FindUserByEmail(ctx, newEmail); err == nil {
			return ErrEmailInUse
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storagef("find user", err)
		}
		if err := tx.UpdateApprovalEmail(ctx, entry.ID, newEmail); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailInUse
			}
			return storagef("rename approval", err)
		}
		return nil
	})
}

// ListApprovals returns the actor's company approval entries.
// SUPERVISOR rank required.
func (s *AuthService) ListApprovals(ctx context.Context, actor *model.User) ([]model.ApprovedEmail, error) {
	if !actor.Role.AtLeast(model.RoleSupervisor) {
		return nil, ErrForbidden
	}
	out, err := s.ds.ListApprovalsByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, storagef("list approvals", err)
	}
	return out, nil
}

// ListWorkers returns the actor's company accounts. SUPERVISOR rank
// required.
func (s *AuthService) ListWorkers(ctx context.Context, actor *model.User) ([]model.User, error) {
	if !actor.Role.AtLeast(model.RoleSupervisor) {
		return nil, ErrForbidden
	}
	out, err := s.ds.ListUsersByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, storagef("list workers", err)
	}
	return out, nil
}

// CompanyForUser returns the caller's tenant record, settings
// included. Any authenticated company member may read it.
func (s *AuthService) CompanyForUser(ctx context.Context, user *model.User) (*model.Company, error) {
	c, err := s.ds.FindCompanyByID(ctx, user.CompanyID)
	if err != nil {
		return nil, storagef("find company", err)
	}
	return c, nil
}

// UpdateCompanySettings replaces the tenant settings document.
// SUPERVISOR rank required.
func (s *AuthService) UpdateCompanySettings(ctx context.Context, actor *model.User, settings map[string]any) error {
	if !actor.Role.AtLeast(model.RoleSupervisor) {
		return ErrForbidden
	}
	if err := s.ds.UpdateCompanySettings(ctx, actor.CompanyID, settings); err != nil {
		return storagef("update settings", err)
	}
	return nil
}
