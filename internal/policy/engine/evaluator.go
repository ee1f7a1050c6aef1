package engine

import (
	"context"

	membership "contract-rbac/internal/membership/domain"
)

// Evaluator decides whether an effective role may perform an operation.
// Implementations must fail closed: a non-nil error always comes with false.
type Evaluator interface {
	Allowed(ctx context.Context, operation string, role membership.Role) (bool, error)
}

// Table maps an operation name to the roles allowed to perform it.
type Table map[string][]membership.Role

// DefaultTable is the built-in role policy. Read is open to every role, writes to
// owners and editors, and destructive or membership operations to owners only.
var DefaultTable = Table{
	"org.read":           {membership.RoleOwner, membership.RoleEditor, membership.RoleViewer},
	"contract.read":      {membership.RoleOwner, membership.RoleEditor, membership.RoleViewer},
	"contract.create":    {membership.RoleOwner, membership.RoleEditor},
	"contract.update":    {membership.RoleOwner, membership.RoleEditor},
	"contract.delete":    {membership.RoleOwner},
	"org.members.manage": {membership.RoleOwner},
	"org.update":         {membership.RoleOwner},
	"org.delete":         {membership.RoleOwner},
}

// StaticEvaluator answers from an in-process Table.
type StaticEvaluator struct {
	table Table
}

// NewStaticEvaluator returns an evaluator over table, or DefaultTable when table is nil.
func NewStaticEvaluator(table Table) *StaticEvaluator {
	if table == nil {
		table = DefaultTable
	}
	return &StaticEvaluator{table: table}
}

// Allowed reports whether role is listed for operation. Unknown operations are denied.
func (e *StaticEvaluator) Allowed(ctx context.Context, operation string, role membership.Role) (bool, error) {
	for _, r := range e.table[operation] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}
