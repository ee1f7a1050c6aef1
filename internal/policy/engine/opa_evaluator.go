package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rs/zerolog/log"

	membership "contract-rbac/internal/membership/domain"
)

const allowQuery = "data.rbac.authz.allow"

// DefaultRegoPolicy mirrors DefaultTable. A policy file supplied through configuration
// replaces it and must define data.rbac.authz.allow over input.operation and input.role.
const DefaultRegoPolicy = `package rbac.authz

default allow := false

roles := {
	"org.read": {"owner", "editor", "viewer"},
	"contract.read": {"owner", "editor", "viewer"},
	"contract.create": {"owner", "editor"},
	"contract.update": {"owner", "editor"},
	"contract.delete": {"owner"},
	"org.members.manage": {"owner"},
	"org.update": {"owner"},
	"org.delete": {"owner"},
}

allow if {
	input.role in roles[input.operation]
}
`

// OPAEvaluator evaluates the role policy with OPA Rego. The policy is compiled once
// at construction; each decision runs the prepared query.
type OPAEvaluator struct {
	compiler *ast.Compiler
	query    rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy, or DefaultRegoPolicy when policy is empty.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"rbac.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	query, err := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy query: %w", err)
	}
	return &OPAEvaluator{compiler: compiler, query: query}, nil
}

// LoadOPAEvaluator reads a Rego policy from path. An empty path uses DefaultRegoPolicy.
func LoadOPAEvaluator(ctx context.Context, path string) (*OPAEvaluator, error) {
	if path == "" {
		return NewOPAEvaluator(ctx, "")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return NewOPAEvaluator(ctx, string(b))
}

// Allowed evaluates data.rbac.authz.allow. Anything other than a boolean true result
// is a deny.
func (e *OPAEvaluator) Allowed(ctx context.Context, operation string, role membership.Role) (bool, error) {
	input := map[string]interface{}{
		"operation": operation,
		"role":      string(role),
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("operation", operation).Msg("policy evaluation failed, denying")
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, errors.New("policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck evaluates the loaded policy with an owner reading an organization, which
// every sane policy allows. Does not touch the database.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	rs, err := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(e.compiler),
		rego.Input(map[string]interface{}{"operation": "org.read", "role": string(membership.RoleOwner)}),
	).Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return errors.New("policy query returned no result")
	}
	if allowed, _ := rs[0].Expressions[0].Value.(bool); !allowed {
		return errors.New("policy denies owner read")
	}
	return nil
}
