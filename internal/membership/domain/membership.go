package domain

import (
	"strings"
	"time"
)

// Membership links a personal account to an organization with a stored role.
// The organization owner is never stored as a Membership.
type Membership struct {
	MemberID string    `json:"member_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ParseRole returns the Role named by s (case-insensitive) and whether it is known.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, true
	case RoleEditor:
		return RoleEditor, true
	case RoleViewer:
		return RoleViewer, true
	}
	return "", false
}

// Assignable reports whether r may be stored on a Membership. Owner is derived, never assigned.
func (r Role) Assignable() bool {
	return r == RoleEditor || r == RoleViewer
}
