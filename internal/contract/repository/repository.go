package repository

import (
	"context"

	"contract-rbac/internal/contract/domain"
	resource "contract-rbac/internal/resource/domain"
)

// Repository defines persistence for contracts. FindByID returns nil with a nil error
// when the contract does not exist.
type Repository interface {
	// Save inserts c, or updates it if the id already exists. Used on creation. The
	// owner of an existing contract is never rewritten.
	Save(ctx context.Context, c *domain.Contract) error
	// Update writes the name, description and updated_at of an existing contract. It
	// never inserts: a contract deleted since it was read is NotFound.
	Update(ctx context.Context, c *domain.Contract) error
	FindByID(ctx context.Context, id string) (*domain.Contract, error)
	// Delete removes the contract and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	ListByOwner(ctx context.Context, owner resource.Owner) ([]*domain.Contract, error)
	DeleteByOwner(ctx context.Context, owner resource.Owner) (int64, error)
	CountByOwner(ctx context.Context, owner resource.Owner) (int64, error)
}
