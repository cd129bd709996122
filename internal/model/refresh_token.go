package model

import "time"

// RefreshToken mirrors the 'refresh_tokens' table. Token holds the
// signed refresh JWT exactly as issued to the client; a signed token is
// only honored while a matching row exists. An account may own several
// rows at once, one per active session or device.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the ledger entry has lapsed. A token is
// expired at the exact expiry instant, not one tick after.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
