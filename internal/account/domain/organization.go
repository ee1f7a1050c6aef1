package domain

import (
	"errors"
	"strings"
	"time"

	"contract-rbac/internal/apperr"
	membership "contract-rbac/internal/membership/domain"
)

// Organization is a named group with exactly one owner and zero or more members.
// The owner is fixed at creation and is never stored in Members.
//
// Membership mutations do not modify the receiver: each returns a new snapshot that
// the caller must persist. Authorization must never be decided on a snapshot that was
// passed in from elsewhere; re-fetch the organization by id first.
type Organization struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Members     []membership.Membership
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrganization returns an organization owned by ownerID with no members.
func NewOrganization(id, ownerID, name, description string, now time.Time) *Organization {
	now = now.UTC()
	return &Organization{
		ID:          id,
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Members:     []membership.Membership{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (o *Organization) AccountID() string { return o.ID }
func (o *Organization) AccountType() Type { return TypeOrganization }
func (o *Organization) Created() time.Time { return o.CreatedAt }
func (o *Organization) Updated() time.Time { return o.UpdatedAt }

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Organization) Validate() error {
	if o.ID == "" {
		return errors.New("id is required")
	}
	if o.OwnerID == "" {
		return errors.New("owner is required")
	}
	if o.Name == "" {
		return errors.New("name is required")
	}
	seen := make(map[string]struct{}, len(o.Members))
	for _, m := range o.Members {
		if m.MemberID == o.OwnerID {
			return errors.New("owner must not be stored as a member")
		}
		if !m.Role.Assignable() {
			return errors.New("member role must be editor or viewer")
		}
		if _, dup := seen[m.MemberID]; dup {
			return errors.New("duplicate member " + m.MemberID)
		}
		seen[m.MemberID] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy of o.
func (o *Organization) Clone() *Organization {
	out := *o
	out.Members = make([]membership.Membership, len(o.Members))
	copy(out.Members, o.Members)
	return &out
}

// WithDetails returns a copy of o with a new name and description.
func (o *Organization) WithDetails(name, description string, now time.Time) *Organization {
	out := o.Clone()
	out.Name = strings.TrimSpace(name)
	out.Description = strings.TrimSpace(description)
	out.UpdatedAt = touch(o.UpdatedAt, now)
	return out
}

// AddMember returns a copy of o with memberID appended under role.
func (o *Organization) AddMember(memberID string, role membership.Role, now time.Time) (*Organization, error) {
	const op = "organization.add_member"
	if memberID == "" {
		return nil, apperr.E(apperr.InvalidArgument, op, "member id is required")
	}
	if !role.Assignable() {
		return nil, apperr.E(apperr.InvalidArgument, op, "role must be editor or viewer")
	}
	if memberID == o.OwnerID {
		return nil, apperr.E(apperr.InvalidArgument, op, "owner is already a member")
	}
	if o.indexOf(memberID) >= 0 {
		return nil, apperr.E(apperr.InvalidArgument, op, "account is already a member")
	}
	out := o.Clone()
	out.Members = append(out.Members, membership.Membership{MemberID: memberID, Role: role, JoinedAt: now.UTC()})
	out.UpdatedAt = touch(o.UpdatedAt, now)
	return out, nil
}

// RemoveMember returns a copy of o without memberID. Removing an account that is not a
// member is a no-op; removing the owner is rejected.
func (o *Organization) RemoveMember(memberID string, now time.Time) (*Organization, error) {
	if memberID == o.OwnerID {
		return nil, apperr.E(apperr.InvalidArgument, "organization.remove_member", "cannot remove the owner")
	}
	i := o.indexOf(memberID)
	if i < 0 {
		return o.Clone(), nil
	}
	out := o.Clone()
	out.Members = append(out.Members[:i], out.Members[i+1:]...)
	out.UpdatedAt = touch(o.UpdatedAt, now)
	return out, nil
}

// UpdateMemberRole returns a copy of o with memberID's role replaced.
func (o *Organization) UpdateMemberRole(memberID string, role membership.Role, now time.Time) (*Organization, error) {
	const op = "organization.update_member_role"
	if memberID == o.OwnerID {
		return nil, apperr.E(apperr.InvalidArgument, op, "cannot change the owner's role")
	}
	if !role.Assignable() {
		return nil, apperr.E(apperr.InvalidArgument, op, "role must be editor or viewer")
	}
	i := o.indexOf(memberID)
	if i < 0 {
		return nil, apperr.E(apperr.NotFound, op, "member not found")
	}
	out := o.Clone()
	out.Members[i].Role = role
	out.UpdatedAt = touch(o.UpdatedAt, now)
	return out, nil
}

// MemberRole returns the effective role of accountID: owner for the owner, the stored
// role for a member, and false when the account has no role.
func (o *Organization) MemberRole(accountID string) (membership.Role, bool) {
	if accountID == "" {
		return "", false
	}
	if accountID == o.OwnerID {
		return membership.RoleOwner, true
	}
	if i := o.indexOf(accountID); i >= 0 {
		return o.Members[i].Role, true
	}
	return "", false
}

// IsMember reports whether accountID is the owner or a stored member.
func (o *Organization) IsMember(accountID string) bool {
	_, ok := o.MemberRole(accountID)
	return ok
}

func (o *Organization) indexOf(memberID string) int {
	for i, m := range o.Members {
		if m.MemberID == memberID {
			return i
		}
	}
	return -1
}
