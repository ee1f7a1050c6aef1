// Package service implements the personal account and organization use cases. Every
// operation authorizes against freshly loaded state before it mutates anything.
package service

import (
	"context"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/platform/rbac"
	resource "contract-rbac/internal/resource/domain"
)

// Authorizer is implemented by *rbac.Engine.
type Authorizer interface {
	AuthorizeOrg(ctx context.Context, callerID, orgID string, op rbac.Operation) (*domain.Organization, error)
	AuthorizePersonal(ctx context.Context, callerID, ownerID string, op rbac.Operation) error
}

// ContractStore is the part of the contract repository that account deletion needs.
type ContractStore interface {
	CountByOwner(ctx context.Context, owner resource.Owner) (int64, error)
	DeleteByOwner(ctx context.Context, owner resource.Owner) (int64, error)
}

// SecretHasher hashes raw secrets. Implemented by *security.Hasher.
type SecretHasher interface {
	Hash(secret string) (string, error)
}
