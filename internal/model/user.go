package model

import "time"

// User mirrors the 'users' table. Email is unique across all companies;
// PhoneNumber is optional.
type User struct {
	ID           uint64
	CompanyID    uint64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
