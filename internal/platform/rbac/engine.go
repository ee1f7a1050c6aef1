package rbac

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	account "contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	membership "contract-rbac/internal/membership/domain"
	"contract-rbac/internal/policy/engine"
	"contract-rbac/internal/telemetry"
)

// OrganizationFinder loads the current persisted state of an organization. Returns
// nil with a nil error when the organization does not exist.
type OrganizationFinder interface {
	FindOrganizationByID(ctx context.Context, id string) (*account.Organization, error)
}

// Decision is the outcome of evaluating one operation for one caller.
type Decision struct {
	Allowed bool
	Role    membership.Role
	Reason  Reason
}

// Engine authorizes organization-scoped operations against freshly loaded state.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	orgs      OrganizationFinder
	evaluator engine.Evaluator
	metrics   *telemetry.Metrics
}

// NewEngine returns an Engine that loads organizations from orgs and asks evaluator
// whether a role may perform an operation.
func NewEngine(orgs OrganizationFinder, evaluator engine.Evaluator) *Engine {
	return &Engine{orgs: orgs, evaluator: evaluator, metrics: telemetry.GetMetrics()}
}

// Decide re-fetches the organization by id and evaluates op for callerID against that
// state. A missing organization is a NotFound error; a store failure is Unavailable.
// The returned organization is the snapshot the decision was made on.
func (e *Engine) Decide(ctx context.Context, callerID, orgID string, op Operation) (*account.Organization, Decision, error) {
	org, err := e.orgs.FindOrganizationByID(ctx, orgID)
	if err != nil {
		return nil, Decision{}, apperr.Unavailablef("rbac.decide", err)
	}
	if org == nil {
		return nil, Decision{}, apperr.E(apperr.NotFound, "rbac.decide", "organization not found")
	}

	role, ok := org.MemberRole(callerID)
	if !ok {
		return org, Decision{Reason: ReasonNotAMember}, nil
	}
	allowed, err := e.evaluator.Allowed(ctx, string(op), role)
	if err != nil {
		return org, Decision{Role: role, Reason: ReasonPolicyError}, apperr.Wrap(apperr.Internal, "rbac.decide", err)
	}
	if !allowed {
		return org, Decision{Role: role, Reason: ReasonInsufficientRole}, nil
	}
	return org, Decision{Allowed: true, Role: role, Reason: ReasonAllowed}, nil
}

// AuthorizeOrg allows op only if callerID holds a role in the organization's current
// persisted state that the policy permits. On success it returns that state so the
// caller can derive its mutation from it.
func (e *Engine) AuthorizeOrg(ctx context.Context, callerID, orgID string, op Operation) (*account.Organization, error) {
	start := time.Now()
	org, d, err := e.Decide(ctx, callerID, orgID, op)
	e.record(ctx, op, d, err, start)

	zerolog.Ctx(ctx).Debug().
		Str("caller_id", callerID).
		Str("org_id", orgID).
		Str("operation", string(op)).
		Str("role", string(d.Role)).
		Str("reason", string(d.Reason)).
		Bool("allowed", d.Allowed && err == nil).
		Msg("authorization decision")

	if err != nil {
		return nil, err
	}
	switch d.Reason {
	case ReasonAllowed:
		return org, nil
	case ReasonNotAMember:
		return nil, apperr.E(apperr.NotAMember, string(op), "caller is not a member of this organization")
	default:
		return nil, apperr.E(apperr.InsufficientPermissions, string(op), "role "+string(d.Role)+" may not perform "+string(op))
	}
}

// AuthorizePersonal allows op on a personally owned resource only for its owner.
// No role applies.
func (e *Engine) AuthorizePersonal(ctx context.Context, callerID, ownerID string, op Operation) error {
	start := time.Now()
	d := Decision{Allowed: true, Role: membership.RoleOwner, Reason: ReasonAllowed}
	if callerID == "" || callerID != ownerID {
		d = Decision{Reason: ReasonNotOwner}
	}
	e.record(ctx, op, d, nil, start)
	if !d.Allowed {
		return apperr.E(apperr.NotOwner, string(op), "caller is not the owner")
	}
	return nil
}

func (e *Engine) record(ctx context.Context, op Operation, d Decision, err error, start time.Time) {
	outcome := "deny"
	if d.Allowed && err == nil {
		outcome = "allow"
	}
	reason := string(d.Reason)
	if err != nil && reason == "" {
		reason = string(apperr.KindOf(err))
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", string(op)),
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	)
	e.metrics.RBACDecisionsTotal.Add(ctx, 1, attrs)
	e.metrics.RBACDecisionDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}
