package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	resource "contract-rbac/internal/resource/domain"
)

// MemoryRepository is an in-memory Repository for development and tests. It enforces
// the same constraints as the accounts table: unique personal email, immutable type
// and owner, and no deleting an account that still owns an organization or, once
// TrackContracts is called, a contract.
type MemoryRepository struct {
	mu        sync.RWMutex
	accounts  map[string]domain.Account
	contracts ContractCounter
}

// ContractCounter counts the contracts held by an owner.
type ContractCounter interface {
	CountByOwner(ctx context.Context, owner resource.Owner) (int64, error)
}

// NewMemoryRepository returns an empty in-memory account repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]domain.Account)}
}

// TrackContracts makes DeleteByID refuse accounts that still own contracts in c,
// the way the contracts foreign key does in Postgres. c is consulted while the
// account lock is held, so c must never call back into r.
func (r *MemoryRepository) TrackContracts(c ContractCounter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts = c
}

// GuardOwner runs fn while owner is known to exist and cannot be deleted.
// A missing owner is a Conflict, matching a foreign key violation.
func (r *MemoryRepository) GuardOwner(ctx context.Context, owner resource.Owner, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailablef("accounts.guard_owner", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[owner.ID]
	if !ok || a.AccountType() != owner.Type {
		return apperr.E(apperr.Conflict, "accounts.guard_owner", "owner "+owner.ID+" does not exist")
	}
	return fn()
}

func (r *MemoryRepository) Save(ctx context.Context, a domain.Account) error {
	return r.put(ctx, "accounts.save", a, true)
}

func (r *MemoryRepository) Update(ctx context.Context, a domain.Account) error {
	return r.put(ctx, "accounts.update", a, false)
}

func (r *MemoryRepository) put(ctx context.Context, op string, a domain.Account, insert bool) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailablef(op, err)
	}
	stored := clone(a)
	if stored == nil {
		return apperr.E(apperr.InvalidArgument, op, "unsupported account")
	}
	if err := validate(stored); err != nil {
		return apperr.Wrap(apperr.InvalidArgument, op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.accounts[stored.AccountID()]
	if !insert && (!exists || existing.AccountType() != stored.AccountType()) {
		return apperr.E(apperr.NotFound, op, "account "+stored.AccountID()+" not found")
	}
	if exists && existing.AccountType() != stored.AccountType() {
		return apperr.E(apperr.Conflict, op, "account "+stored.AccountID()+" exists with a different type")
	}
	switch v := stored.(type) {
	case *domain.Personal:
		for id, other := range r.accounts {
			if p, ok := other.(*domain.Personal); ok && id != v.ID && p.Email == v.Email {
				return apperr.E(apperr.Conflict, op, "email already registered")
			}
		}
		if exists {
			v.CreatedAt = existing.Created()
			v.UpdatedAt = laterOf(existing.Updated(), v.UpdatedAt)
		}
	case *domain.Organization:
		if exists {
			prev := existing.(*domain.Organization)
			v.OwnerID = prev.OwnerID
			v.CreatedAt = prev.CreatedAt
			v.UpdatedAt = laterOf(prev.UpdatedAt, v.UpdatedAt)
		} else if _, ok := r.accounts[v.OwnerID].(*domain.Personal); !ok {
			return apperr.E(apperr.Conflict, op, "owner "+v.OwnerID+" does not exist")
		}
	}
	r.accounts[stored.AccountID()] = stored
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailablef("accounts.find_by_id", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return clone(a), nil
}

func (r *MemoryRepository) FindPersonalByID(ctx context.Context, id string) (*domain.Personal, error) {
	a, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, _ := a.(*domain.Personal)
	return p, nil
}

func (r *MemoryRepository) FindPersonalByEmail(ctx context.Context, email string) (*domain.Personal, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailablef("accounts.find_personal_by_email", err)
	}
	email = domain.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if p, ok := a.(*domain.Personal); ok && p.Email == email {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) FindOrganizationByID(ctx context.Context, id string) (*domain.Organization, error) {
	a, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o, _ := a.(*domain.Organization)
	return o, nil
}

func (r *MemoryRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	p, err := r.FindPersonalByEmail(ctx, email)
	return p != nil, err
}

func (r *MemoryRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	const op = "accounts.delete"
	if err := ctx.Err(); err != nil {
		return false, apperr.Unavailablef(op, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.accounts[id]
	if !ok {
		return false, nil
	}
	for _, a := range r.accounts {
		if o, ok := a.(*domain.Organization); ok && o.OwnerID == id {
			return false, apperr.E(apperr.Conflict, op, "account still owns organization "+o.ID)
		}
	}
	if r.contracts != nil {
		n, err := r.contracts.CountByOwner(ctx, resource.Owner{ID: id, Type: target.AccountType()})
		if err != nil {
			return false, apperr.Unavailablef(op, err)
		}
		if n > 0 {
			return false, apperr.E(apperr.Conflict, op, "account still owns contracts")
		}
	}
	delete(r.accounts, id)
	return true, nil
}

func (r *MemoryRepository) FindOrganizationsByOwner(ctx context.Context, ownerID string) ([]*domain.Organization, error) {
	return r.organizations(ctx, "accounts.find_organizations_by_owner", func(o *domain.Organization) bool {
		return o.OwnerID == ownerID
	})
}

func (r *MemoryRepository) FindOrganizationsByMember(ctx context.Context, memberID string) ([]*domain.Organization, error) {
	return r.organizations(ctx, "accounts.find_organizations_by_member", func(o *domain.Organization) bool {
		return memberID != o.OwnerID && o.IsMember(memberID)
	})
}

func (r *MemoryRepository) organizations(ctx context.Context, op string, match func(*domain.Organization) bool) ([]*domain.Organization, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailablef(op, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Organization{}
	for _, a := range r.accounts {
		if o, ok := a.(*domain.Organization); ok && match(o) {
			out = append(out, o.Clone())
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

func clone(a domain.Account) domain.Account {
	switch v := a.(type) {
	case *domain.Personal:
		out := *v
		return &out
	case *domain.Organization:
		return v.Clone()
	}
	return nil
}

func validate(a domain.Account) error {
	switch v := a.(type) {
	case *domain.Personal:
		return v.Validate()
	case *domain.Organization:
		return v.Validate()
	}
	return nil
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
