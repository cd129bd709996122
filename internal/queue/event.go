// Package queue defines the audit events exchanged over the message
// broker and the background consumer that records them.
package queue

// AuthEventsQueue is the durable queue auth audit events are published
// to and consumed from.
const AuthEventsQueue = "auth.events"

// Audit event kinds.
const (
	EventUserRegistered  = "user.registered"
	EventUserLoggedIn    = "user.logged_in"
	EventSessionsRevoked = "sessions.revoked"
	EventRoleChanged     = "role.changed"
	EventAccountDeleted  = "account.deleted"
)

// AuthEvent is published after an auth-state change commits. It carries
// enough for downstream audit logging without querying the primary
// database. Reason distinguishes why sessions were revoked (logout vs
// password change).
type AuthEvent struct {
	Kind      string `json:"kind"`
	UserID    uint64 `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	CompanyID uint64 `json:"company_id,omitempty"`
	Role      string `json:"role,omitempty"`
	ActorID   uint64 `json:"actor_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
	At        string `json:"at"`
}
