package repository

import (
	"context"

	"contract-rbac/internal/account/domain"
)

// Repository defines persistence for personal and organization accounts. Lookups
// return nil with a nil error when no row matches; errors are reserved for storage
// failures and are classified with apperr kinds.
type Repository interface {
	// Save inserts a, or updates it if the id already exists. Used on creation. The
	// account type, owner and creation time of an existing row are never rewritten.
	Save(ctx context.Context, a domain.Account) error
	// Update writes the mutable fields of an existing account. It never inserts: an
	// account deleted since it was read is NotFound.
	Update(ctx context.Context, a domain.Account) error
	FindByID(ctx context.Context, id string) (domain.Account, error)
	FindPersonalByID(ctx context.Context, id string) (*domain.Personal, error)
	FindPersonalByEmail(ctx context.Context, email string) (*domain.Personal, error)
	FindOrganizationByID(ctx context.Context, id string) (*domain.Organization, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// DeleteByID removes the account and reports whether a row existed.
	DeleteByID(ctx context.Context, id string) (bool, error)
	FindOrganizationsByOwner(ctx context.Context, ownerID string) ([]*domain.Organization, error)
	// FindOrganizationsByMember returns organizations that store memberID as a member.
	// Owned organizations are not included.
	FindOrganizationsByMember(ctx context.Context, memberID string) ([]*domain.Organization, error)
}
