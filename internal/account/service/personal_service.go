package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/account/repository"
	"contract-rbac/internal/apperr"
	"contract-rbac/internal/platform/rbac"
	resource "contract-rbac/internal/resource/domain"
)

// UpdatePersonalInput holds the fields a personal account may change. Nil fields are left as they are.
type UpdatePersonalInput struct {
	Email  *string
	Secret *string
}

// PersonalService implements self-service read, update and delete of personal accounts.
// Only the account itself may act on it; no organization role applies.
type PersonalService struct {
	accounts  repository.Repository
	contracts ContractStore
	authz     Authorizer
	hasher    SecretHasher
}

// NewPersonalService returns a PersonalService with the given dependencies.
func NewPersonalService(accounts repository.Repository, contracts ContractStore, authz Authorizer, hasher SecretHasher) *PersonalService {
	return &PersonalService{accounts: accounts, contracts: contracts, authz: authz, hasher: hasher}
}

// Get returns the caller's own account.
func (s *PersonalService) Get(ctx context.Context, callerID, id string) (*domain.Personal, error) {
	if err := s.authz.AuthorizePersonal(ctx, callerID, id, rbac.OpAccountRead); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Update changes the caller's email and/or secret. A new email must not belong to
// another personal account.
func (s *PersonalService) Update(ctx context.Context, callerID, id string, in UpdatePersonalInput) (*domain.Personal, error) {
	const op = "account.update"
	if err := s.authz.AuthorizePersonal(ctx, callerID, id, rbac.OpAccountUpdate); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if err := domain.ValidateEmail(email); err != nil {
			return nil, apperr.Wrap(apperr.InvalidArgument, op, err)
		}
		if email != p.Email {
			taken, err := s.accounts.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperr.E(apperr.Conflict, op, "email already registered")
			}
			p = p.WithEmail(email, now)
		}
	}
	if in.Secret != nil {
		if err := domain.ValidateSecret(*in.Secret); err != nil {
			return nil, apperr.Wrap(apperr.InvalidArgument, op, err)
		}
		hash, err := s.hasher.Hash(*in.Secret)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, op, err)
		}
		p = p.WithCredential(hash, now)
	}

	if err := s.accounts.Update(ctx, p); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("account_id", id).Msg("personal account updated")
	return p, nil
}

// Delete removes the caller's account. An account that still owns organizations or
// contracts cannot be deleted, so nothing is left without an owner. The account row is
// deleted before its memberships in other organizations are removed, so a refused
// delete leaves every membership in place.
func (s *PersonalService) Delete(ctx context.Context, callerID, id string) error {
	const op = "account.delete"
	if err := s.authz.AuthorizePersonal(ctx, callerID, id, rbac.OpAccountDelete); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	owned, err := s.accounts.FindOrganizationsByOwner(ctx, id)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return apperr.E(apperr.Conflict, op, "account still owns organizations; delete them first")
	}
	n, err := s.contracts.CountByOwner(ctx, resource.Owner{ID: id, Type: domain.TypePersonal})
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.E(apperr.Conflict, op, "account still owns contracts; delete them first")
	}

	deleted, err := s.accounts.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.E(apperr.NotFound, op, "account not found")
	}

	removed, err := s.removeMemberships(ctx, id)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().
		Str("account_id", id).
		Int("memberships_removed", removed).
		Msg("personal account deleted")
	return nil
}

// removeMemberships drops id from every organization that stores it as a member.
// Organizations deleted in the meantime are skipped.
func (s *PersonalService) removeMemberships(ctx context.Context, id string) (int, error) {
	memberOf, err := s.accounts.FindOrganizationsByMember(ctx, id)
	if err != nil {
		return 0, err
	}
	removed := 0
	now := time.Now().UTC()
	for _, org := range memberOf {
		updated, err := org.RemoveMember(id, now)
		if err != nil {
			return removed, err
		}
		if err := s.accounts.Update(ctx, updated); err != nil {
			if errors.Is(err, apperr.NotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *PersonalService) load(ctx context.Context, id string) (*domain.Personal, error) {
	p, err := s.accounts.FindPersonalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.E(apperr.NotFound, "account.get", "account not found")
	}
	return p, nil
}
