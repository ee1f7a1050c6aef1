package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/account/repository"
	"contract-rbac/internal/apperr"
	membership "contract-rbac/internal/membership/domain"
	"contract-rbac/internal/platform/rbac"
	resource "contract-rbac/internal/resource/domain"
	"contract-rbac/internal/telemetry"
)

// Organization delete modes.
const (
	DeleteForbid  = "forbid"
	DeleteCascade = "cascade"
)

// OrganizationService implements organization lifecycle and membership management.
// Each use case authorizes against the organization as currently persisted, then
// derives its mutation from that same snapshot and saves it.
type OrganizationService struct {
	accounts   repository.Repository
	contracts  ContractStore
	authz      Authorizer
	deleteMode string
	metrics    *telemetry.Metrics
}

// NewOrganizationService returns an OrganizationService. deleteMode is DeleteForbid or
// DeleteCascade; anything else behaves as DeleteForbid.
func NewOrganizationService(accounts repository.Repository, contracts ContractStore, authz Authorizer, deleteMode string) *OrganizationService {
	if deleteMode != DeleteCascade {
		deleteMode = DeleteForbid
	}
	return &OrganizationService{
		accounts:   accounts,
		contracts:  contracts,
		authz:      authz,
		deleteMode: deleteMode,
		metrics:    telemetry.GetMetrics(),
	}
}

// Create creates an organization owned by the caller, who must be an existing personal account.
func (s *OrganizationService) Create(ctx context.Context, callerID, name, description string) (*domain.Organization, error) {
	const op = "organization.create"
	owner, err := s.accounts.FindPersonalByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, apperr.E(apperr.NotFound, op, "caller account not found")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	org := domain.NewOrganization(id.String(), owner.ID, name, description, time.Now())
	if err := org.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	if err := s.accounts.Save(ctx, org); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("org_id", org.ID).Str("owner_id", owner.ID).Msg("organization created")
	return org, nil
}

// Get returns the organization if the caller holds any role in it.
func (s *OrganizationService) Get(ctx context.Context, callerID, orgID string) (*domain.Organization, error) {
	return s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpOrgRead)
}

// ListOwned returns the organizations the caller owns.
func (s *OrganizationService) ListOwned(ctx context.Context, callerID string) ([]*domain.Organization, error) {
	return s.accounts.FindOrganizationsByOwner(ctx, callerID)
}

// ListMemberOf returns the organizations in which the caller is a stored member.
func (s *OrganizationService) ListMemberOf(ctx context.Context, callerID string) ([]*domain.Organization, error) {
	return s.accounts.FindOrganizationsByMember(ctx, callerID)
}

// ListMembers returns the owner followed by the stored members, in join order.
func (s *OrganizationService) ListMembers(ctx context.Context, callerID, orgID string) ([]membership.Membership, error) {
	org, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpOrgRead)
	if err != nil {
		return nil, err
	}
	out := make([]membership.Membership, 0, len(org.Members)+1)
	out = append(out, membership.Membership{MemberID: org.OwnerID, Role: membership.RoleOwner, JoinedAt: org.CreatedAt})
	return append(out, org.Members...), nil
}

// AddMember adds an existing personal account to the organization under role. Owner
// only. role is checked after the caller is authorized.
func (s *OrganizationService) AddMember(ctx context.Context, callerID, orgID, memberID string, role membership.Role) (*domain.Organization, error) {
	org, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpOrgMembersManage)
	if err != nil {
		return nil, err
	}
	role, err = parseRole("organization.add_member", role)
	if err != nil {
		return nil, err
	}
	member, err := s.accounts.FindPersonalByID(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, apperr.E(apperr.NotFound, "organization.add_member", "member account not found")
	}
	updated, err := org.AddMember(member.ID, role, time.Now())
	if err != nil {
		return nil, err
	}
	return s.saveMembership(ctx, updated, "add", member.ID)
}

// RemoveMember removes memberID from the organization. Owner only. Removing an
// account that is not a member succeeds without writing.
func (s *OrganizationService) RemoveMember(ctx context.Context, callerID, orgID, memberID string) (*domain.Organization, error) {
	org, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpOrgMembersManage)
	if err != nil {
		return nil, err
	}
	wasMember := org.IsMember(memberID)
	updated, err := org.RemoveMember(memberID, time.Now())
	if err != nil {
		return nil, err
	}
	if !wasMember {
		return updated, nil
	}
	return s.saveMembership(ctx, updated, "remove", memberID)
}

// UpdateMemberRole replaces memberID's role. Owner only.
func (s *OrganizationService) UpdateMemberRole(ctx context.Context, callerID, orgID, memberID string, role membership.Role) (*domain.Organization, error) {
	org, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpOrgMembersManage)
	if err != nil {
		return nil, err
	}
	role, err = parseRole("organization.update_member_role", role)
	if err != nil {
		return nil, err
	}
	updated, err := org.UpdateMemberRole(memberID, role, time.Now())
	if err != nil {
		return nil, err
	}
	return s.saveMembership(ctx, updated, "update_role", memberID)
}

// Update changes the organization's name and description. Owner only.
func (s *OrganizationService) Update(ctx context.Context, callerID, orgID, name, description string) (*domain.Organization, error) {
	org, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpOrgUpdate)
	if err != nil {
		return nil, err
	}
	updated := org.WithDetails(name, description, time.Now())
	if err := updated.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, "organization.update", err)
	}
	if err := s.accounts.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete deletes the organization. Owner only. In forbid mode an organization that
// still owns contracts is a Conflict; in cascade mode its contracts are deleted first.
func (s *OrganizationService) Delete(ctx context.Context, callerID, orgID string) error {
	const op = "organization.delete"
	org, err := s.authz.AuthorizeOrg(ctx, callerID, orgID, rbac.OpOrgDelete)
	if err != nil {
		return err
	}
	owner := resource.Owner{ID: org.ID, Type: domain.TypeOrganization}

	var removed int64
	switch s.deleteMode {
	case DeleteCascade:
		removed, err = s.contracts.DeleteByOwner(ctx, owner)
		if err != nil {
			return err
		}
	default:
		n, err := s.contracts.CountByOwner(ctx, owner)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.E(apperr.Conflict, op, "organization still owns contracts")
		}
	}

	deleted, err := s.accounts.DeleteByID(ctx, org.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.E(apperr.NotFound, op, "organization not found")
	}
	zerolog.Ctx(ctx).Info().
		Str("org_id", org.ID).
		Str("mode", s.deleteMode).
		Int64("contracts_deleted", removed).
		Msg("organization deleted")
	return nil
}

func (s *OrganizationService) saveMembership(ctx context.Context, org *domain.Organization, change, memberID string) (*domain.Organization, error) {
	if err := s.accounts.Update(ctx, org); err != nil {
		return nil, err
	}
	s.metrics.MembershipChangesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("change", change)))
	zerolog.Ctx(ctx).Info().
		Str("org_id", org.ID).
		Str("member_id", memberID).
		Str("change", change).
		Msg("membership changed")
	return org, nil
}

func parseRole(op string, role membership.Role) (membership.Role, error) {
	r, ok := membership.ParseRole(string(role))
	if !ok {
		return "", apperr.E(apperr.InvalidArgument, op, "unknown role "+string(role))
	}
	return r, nil
}
