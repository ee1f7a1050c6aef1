// Package service implements contract use cases for personal and organization owners.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	account "contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	"contract-rbac/internal/contract/domain"
	"contract-rbac/internal/contract/repository"
	"contract-rbac/internal/platform/rbac"
	resource "contract-rbac/internal/resource/domain"
	"contract-rbac/internal/telemetry"
)

// Authorizer is implemented by *rbac.Engine.
type Authorizer interface {
	AuthorizeOrg(ctx context.Context, callerID, orgID string, op rbac.Operation) (*account.Organization, error)
	AuthorizePersonal(ctx context.Context, callerID, ownerID string, op rbac.Operation) error
}

// PersonalFinder resolves the caller's personal account.
type PersonalFinder interface {
	FindPersonalByID(ctx context.Context, id string) (*account.Personal, error)
}

// UpdateContractInput holds the fields a contract update may change. Nil fields are left as they are.
type UpdateContractInput struct {
	Name        *string
	Description *string
}

// ContractService creates, reads, updates, deletes and lists contracts. Every call
// checks that the contract belongs to the owner scope named in the request before any
// role is consulted, so a contract of one owner is never reachable through another.
type ContractService struct {
	contracts repository.Repository
	accounts  PersonalFinder
	authz     Authorizer
	metrics   *telemetry.Metrics
}

// NewContractService returns a ContractService with the given dependencies.
func NewContractService(contracts repository.Repository, accounts PersonalFinder, authz Authorizer) *ContractService {
	return &ContractService{contracts: contracts, accounts: accounts, authz: authz, metrics: telemetry.GetMetrics()}
}

// CreatePersonal creates a contract owned by the caller's personal account.
func (s *ContractService) CreatePersonal(ctx context.Context, callerID, name, description string) (*domain.Contract, error) {
	p, err := s.accounts.FindPersonalByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.E(apperr.NotFound, "contract.create", "caller account not found")
	}
	return s.create(ctx, resource.OwnerOf(p), name, description)
}

// GetPersonal returns a contract owned by the caller.
func (s *ContractService) GetPersonal(ctx context.Context, callerID, contractID string) (*domain.Contract, error) {
	return s.loadPersonal(ctx, callerID, contractID, rbac.OpContractRead)
}

// UpdatePersonal updates a contract owned by the caller.
func (s *ContractService) UpdatePersonal(ctx context.Context, callerID, contractID string, in UpdateContractInput) (*domain.Contract, error) {
	c, err := s.loadPersonal(ctx, callerID, contractID, rbac.OpContractUpdate)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, c, in)
}

// DeletePersonal deletes a contract owned by the caller.
func (s *ContractService) DeletePersonal(ctx context.Context, callerID, contractID string) error {
	c, err := s.loadPersonal(ctx, callerID, contractID, rbac.OpContractDelete)
	if err != nil {
		return err
	}
	return s.delete(ctx, c)
}

// ListPersonal returns the caller's personal contracts.
func (s *ContractService) ListPersonal(ctx context.Context, callerID string) ([]*domain.Contract, error) {
	return s.contracts.ListByOwner(ctx, personalOwner(callerID))
}

// CreateForOrg creates a contract owned by orgID. Requires contract.create on the organization.
func (s *ContractService) CreateForOrg(ctx context.Context, callerID, orgID, name, description string) (*domain.Contract, error) {
	org, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpContractCreate)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, resource.OwnerOf(org), name, description)
}

// GetForOrg returns a contract owned by orgID.
func (s *ContractService) GetForOrg(ctx context.Context, callerID, orgID, contractID string) (*domain.Contract, error) {
	return s.loadForOrg(ctx, callerID, orgID, contractID, rbac.OpContractRead)
}

// UpdateForOrg updates a contract owned by orgID.
func (s *ContractService) UpdateForOrg(ctx context.Context, callerID, orgID, contractID string, in UpdateContractInput) (*domain.Contract, error) {
	c, err := s.loadForOrg(ctx, callerID, orgID, contractID, rbac.OpContractUpdate)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, c, in)
}

// DeleteForOrg deletes a contract owned by orgID.
func (s *ContractService) DeleteForOrg(ctx context.Context, callerID, orgID, contractID string) error {
	c, err := s.loadForOrg(ctx, callerID, orgID, contractID, rbac.OpContractDelete)
	if err != nil {
		return err
	}
	return s.delete(ctx, c)
}

// ListForOrg returns the contracts owned by orgID. Requires contract.read.
func (s *ContractService) ListForOrg(ctx context.Context, callerID, orgID string) ([]*domain.Contract, error) {
	org, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpContractRead)
	if err != nil {
		return nil, err
	}
	return s.contracts.ListByOwner(ctx, resource.OwnerOf(org))
}

func (s *ContractService) create(ctx context.Context, owner resource.Owner, name, description string) (*domain.Contract, error) {
	const op = "contract.create"
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	c := domain.New(id.String(), owner, name, description, time.Now())
	if err := c.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	if err := s.contracts.Save(ctx, c); err != nil {
		return nil, err
	}
	s.recordWrite(ctx, "create", owner)
	zerolog.Ctx(ctx).Info().Str("contract_id", c.ID).Str("owner_id", owner.ID).Str("owner_type", string(owner.Type)).Msg("contract created")
	return c, nil
}

func (s *ContractService) update(ctx context.Context, c *domain.Contract, in UpdateContractInput) (*domain.Contract, error) {
	name, description := c.Name, c.Description
	if in.Name != nil {
		name = *in.Name
	}
	if in.Description != nil {
		description = *in.Description
	}
	updated := c.Update(name, description, time.Now())
	if err := updated.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, "contract.update", err)
	}
	if err := s.contracts.Update(ctx, updated); err != nil {
		return nil, err
	}
	s.recordWrite(ctx, "update", updated.Owner)
	return updated, nil
}

func (s *ContractService) delete(ctx context.Context, c *domain.Contract) error {
	deleted, err := s.contracts.Delete(ctx, c.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.E(apperr.NotFound, "contract.delete", "contract not found")
	}
	s.recordWrite(ctx, "delete", c.Owner)
	zerolog.Ctx(ctx).Info().Str("contract_id", c.ID).Str("owner_id", c.Owner.ID).Msg("contract deleted")
	return nil
}

// loadPersonal checks that the contract is personally owned before checking that the
// caller is that owner.
func (s *ContractService) loadPersonal(ctx context.Context, callerID, contractID string, op rbac.Operation) (*domain.Contract, error) {
	c, err := s.find(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.Owner.Type != account.TypePersonal {
		return nil, apperr.E(apperr.OwnershipMismatch, string(op), "contract is not personally owned")
	}
	if err := s.authz.AuthorizePersonal(ctx, callerID, c.Owner.ID, op); err != nil {
		return nil, err
	}
	return c, nil
}

// loadForOrg checks that the contract belongs to orgID, then authorizes op against the
// organization's current state.
func (s *ContractService) loadForOrg(ctx context.Context, callerID, orgID, contractID string, op rbac.Operation) (*domain.Contract, error) {
	c, err := s.find(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := c.CheckOwner(resource.Owner{ID: orgID, Type: account.TypeOrganization}); err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, op); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContractService) find(ctx context.Context, id string) (*domain.Contract, error) {
	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.E(apperr.NotFound, "contract.get", "contract not found")
	}
	return c, nil
}

func (s *ContractService) recordWrite(ctx context.Context, action string, owner resource.Owner) {
	s.metrics.ContractWritesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("owner_type", string(owner.Type)),
	))
}

func personalOwner(id string) resource.Owner {
	return resource.Owner{ID: id, Type: account.TypePersonal}
}
