package repository

import (
	"context"
	"sort"
	"sync"

	"contract-rbac/internal/apperr"
	"contract-rbac/internal/contract/domain"
	resource "contract-rbac/internal/resource/domain"
)

// MemoryRepository is an in-memory Repository for development and tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	contracts map[string]*domain.Contract
	owners    OwnerGuard
}

// OwnerGuard runs fn while owner exists and cannot be deleted.
type OwnerGuard interface {
	GuardOwner(ctx context.Context, owner resource.Owner, fn func() error) error
}

// NewMemoryRepository returns an empty in-memory contract repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{contracts: make(map[string]*domain.Contract)}
}

// RequireOwners makes Save refuse contracts whose owner is unknown to g, the way
// the owner foreign key does in Postgres.
func (r *MemoryRepository) RequireOwners(g OwnerGuard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners = g
}

func (r *MemoryRepository) Save(ctx context.Context, c *domain.Contract) error {
	const op = "contracts.save"
	if err := ctx.Err(); err != nil {
		return apperr.Unavailablef(op, err)
	}
	if err := c.Validate(); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	r.mu.RLock()
	owners := r.owners
	r.mu.RUnlock()
	if owners == nil {
		return r.put(op, c, true)
	}
	return owners.GuardOwner(ctx, c.Owner, func() error {
		return r.put(op, c, true)
	})
}

func (r *MemoryRepository) Update(ctx context.Context, c *domain.Contract) error {
	const op = "contracts.update"
	if err := ctx.Err(); err != nil {
		return apperr.Unavailablef(op, err)
	}
	if err := c.Validate(); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	return r.put(op, c, false)
}

func (r *MemoryRepository) put(op string, c *domain.Contract, insert bool) error {
	stored := *c

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.contracts[c.ID]
	if !ok && !insert {
		return apperr.E(apperr.NotFound, op, "contract "+c.ID+" not found")
	}
	if ok {
		if err := prev.CheckOwner(c.Owner); err != nil {
			return err
		}
		stored.CreatedAt = prev.CreatedAt
		stored.Touch(prev.UpdatedAt)
	}
	r.contracts[c.ID] = &stored
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*domain.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailablef("contracts.find_by_id", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contracts[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperr.Unavailablef("contracts.delete", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contracts[id]; !ok {
		return false, nil
	}
	delete(r.contracts, id)
	return true, nil
}

func (r *MemoryRepository) ListByOwner(ctx context.Context, owner resource.Owner) ([]*domain.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailablef("contracts.list_by_owner", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Contract{}
	for _, c := range r.contracts {
		if c.Owner == owner {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) DeleteByOwner(ctx context.Context, owner resource.Owner) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperr.Unavailablef("contracts.delete_by_owner", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, c := range r.contracts {
		if c.Owner == owner {
			delete(r.contracts, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CountByOwner(ctx context.Context, owner resource.Owner) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperr.Unavailablef("contracts.count_by_owner", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, c := range r.contracts {
		if c.Owner == owner {
			n++
		}
	}
	return n, nil
}
