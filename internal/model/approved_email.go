package model

import "time"

// ApprovedEmail is an administrator-created entry permitting one email
// to register an account with a fixed role under a company. At most one
// entry exists per email (unique constraint); UsedAt marks the entry as
// consumed by a successful registration.
type ApprovedEmail struct {
	ID        uint64
	CompanyID uint64
	Email     string
	Role      Role
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Consumed reports whether an account has already been created from
// this entry.
func (a *ApprovedEmail) Consumed() bool { return a.UsedAt != nil }
