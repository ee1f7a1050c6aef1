// Package telemetry holds the OpenTelemetry instruments recorded by the service.
package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "contract-rbac"

// Metrics holds the metric instruments.
type Metrics struct {
	// Authorization decisions, tagged with operation, outcome and reason.
	RBACDecisionsTotal   metric.Int64Counter
	RBACDecisionDuration metric.Float64Histogram

	// Domain operations
	AccountsRegisteredTotal metric.Int64Counter
	LoginFailuresTotal      metric.Int64Counter
	MembershipChangesTotal  metric.Int64Counter
	ContractWritesTotal     metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics, created from the global MeterProvider on
// first use. Install providers with SetGlobal before the first call.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.RBACDecisionsTotal, _ = meter.Int64Counter(
		"rbac.decisions.total",
		metric.WithDescription("Authorization decisions by operation and outcome"),
		metric.WithUnit("{decision}"),
	)

	m.RBACDecisionDuration, _ = meter.Float64Histogram(
		"rbac.decision.duration",
		metric.WithDescription("Time to reach an authorization decision, including the organization fetch"),
		metric.WithUnit("ms"),
	)

	m.AccountsRegisteredTotal, _ = meter.Int64Counter(
		"accounts.registered.total",
		metric.WithDescription("Personal accounts registered"),
		metric.WithUnit("{account}"),
	)

	m.LoginFailuresTotal, _ = meter.Int64Counter(
		"accounts.login.failures.total",
		metric.WithDescription("Rejected login attempts"),
		metric.WithUnit("{attempt}"),
	)

	m.MembershipChangesTotal, _ = meter.Int64Counter(
		"organizations.membership.changes.total",
		metric.WithDescription("Persisted membership mutations by kind"),
		metric.WithUnit("{change}"),
	)

	m.ContractWritesTotal, _ = meter.Int64Counter(
		"contracts.writes.total",
		metric.WithDescription("Contract creates, updates and deletes by owner type"),
		metric.WithUnit("{write}"),
	)

	return m
}
