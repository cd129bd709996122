// Package service holds the orchestration layer: the auth session
// service that owns login, registration, token refresh and revocation,
// and the work-day service for reported hours. All policy outcomes are
// sentinel errors so transports can map them without string matching.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotApproved means the email has no pre-approved entry.
	ErrNotApproved = errors.New("email not approved")
	// ErrAlreadyApproved means the email already has an entry.
	ErrAlreadyApproved = errors.New("email already approved")
	// ErrEmailInUse means an account already holds the email.
	ErrEmailInUse = errors.New("email already in use")
	// ErrInvalidToken covers bad signatures, malformed tokens and
	// ledger misses.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired means the ledger entry for a refresh token has
	// lapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrUserNotFound means the referenced account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden means the actor's role does not permit the action.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a cross-store mutation could not be applied
	// consistently and was rolled back.
	ErrConflict = errors.New("conflict")
	// ErrStorage marks an environment failure (connectivity, driver
	// error) as opposed to a policy outcome.
	ErrStorage = errors.New("storage failure")
)

func storagef(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
