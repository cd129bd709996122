package model

import "time"

// Company is the tenant an account belongs to. Settings is a free-form
// JSON document owned by the frontend; the backend stores it verbatim.
type Company struct {
	ID        uint64
	Name      string
	Settings  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}
