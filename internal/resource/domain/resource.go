// Package domain defines the owned-resource model shared by every resource type.
package domain

import (
	"time"

	"contract-rbac/internal/apperr"
	account "contract-rbac/internal/account/domain"
)

// Kind tags the concrete resource type stored with each record.
type Kind string

const (
	KindContract Kind = "contract"
)

// Owner identifies the account that owns a resource.
type Owner struct {
	ID   string
	Type account.Type
}

// OwnerOf returns the Owner reference for a.
func OwnerOf(a account.Account) Owner {
	return Owner{ID: a.AccountID(), Type: a.AccountType()}
}

// Ownership is embedded by every owned resource. Owner is bound at construction and
// never changes.
type Ownership struct {
	ID        string
	Owner     Owner
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOwnership binds a new resource id to owner.
func NewOwnership(id string, owner Owner, now time.Time) Ownership {
	now = now.UTC()
	return Ownership{ID: id, Owner: owner, CreatedAt: now, UpdatedAt: now}
}

// CheckOwner returns OwnershipMismatch unless the resource is owned by exactly owner.
func (o Ownership) CheckOwner(owner Owner) error {
	if o.Owner.ID != owner.ID || o.Owner.Type != owner.Type {
		return apperr.E(apperr.OwnershipMismatch, "resource.check_owner", "resource does not belong to this "+string(owner.Type)+" account")
	}
	return nil
}

// Touch advances UpdatedAt to now; it never moves backwards.
func (o *Ownership) Touch(now time.Time) {
	now = now.UTC()
	if now.After(o.UpdatedAt) {
		o.UpdatedAt = now
	}
}
