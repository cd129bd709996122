package model

import (
	"fmt"
	"strings"
)

// Role is the privilege level of an account. The three values form a
// total order WORKER < SUPERVISOR < MASTER; every comparison goes
// through Rank so the order never depends on declaration position.
type Role string

const (
	RoleWorker     Role = "WORKER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleMaster     Role = "MASTER"
)

// Rank returns the role's position in the hierarchy: WORKER=0,
// SUPERVISOR=1, MASTER=2. Unknown roles rank below WORKER so they can
// never pass a privilege check.
func (r Role) Rank() int {
	switch r {
	case RoleWorker:
		return 0
	case RoleSupervisor:
		return 1
	case RoleMaster:
		return 2
	}
	return -1
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool { return r.Rank() >= 0 }

// CanGrant reports whether an actor holding r may assign or approve the
// target role. An actor may never hand out a role above its own.
func (r Role) CanGrant(target Role) bool {
	return r.Valid() && target.Valid() && r.Rank() >= target.Rank()
}

// AtLeast reports whether r ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && other.Valid() && r.Rank() >= other.Rank()
}

// ParseRole normalizes a role string (case and surrounding whitespace
// are ignored) and rejects anything outside the three known values.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
