// Package metrics exposes planning and execution measurements to Prometheus.
package metrics

import (
	"context"
	"slowpoke/pkg/domain"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "slowpoke"

// Metrics records service and robot measurements on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	serviceOps      *prometheus.CounterVec
	serviceDuration *prometheus.HistogramVec
	violations      *prometheus.CounterVec
	operations      *prometheus.CounterVec
	checkpoints     *prometheus.CounterVec
	lotChanges      *prometheus.CounterVec
	tips            *prometheus.CounterVec
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		// Labels: operation (validate, plan, run), result (success, error)
		serviceOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Service calls by operation and result",
		}, []string{"operation", "result"}),
		serviceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Latency of service calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rules",
			Name:      "violations_total",
			Help:      "Rule findings by workflow, rule and severity",
		}, []string{"workflow", "rule", "severity"}),

		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "robot",
			Name:      "operations_total",
			Help:      "Executed plan operations by kind",
		}, []string{"workflow", "kind"}),
		checkpoints: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "robot",
			Name:      "checkpoints_total",
			Help:      "Operator checkpoints reached",
		}, []string{"workflow"}),
		lotChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "robot",
			Name:      "lot_changes_total",
			Help:      "Consumable changeovers by resource",
		}, []string{"workflow", "resource"}),
		tips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "robot",
			Name:      "tips_used_total",
			Help:      "Tips consumed by pipette",
		}, []string{"workflow", "pipette"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "robot",
			Name:      "runs_total",
			Help:      "Finished runs by final status",
		}, []string{"workflow", "status"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "robot",
			Name:      "run_duration_seconds",
			Help:      "Wall time of runs including operator pauses",
			Buckets:   prometheus.ExponentialBuckets(60, 2, 10),
		}, []string{"workflow"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe implements core.MetricsRecorder.
func (m *Metrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	m.serviceOps.WithLabelValues(operation, result).Inc()
	m.serviceDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveViolations counts rule findings for a workflow.
func (m *Metrics) ObserveViolations(_ context.Context, workflow string, violations []domain.Violation) {
	for _, v := range violations {
		m.violations.WithLabelValues(workflow, v.Rule, string(v.Severity)).Inc()
	}
}

// OperationExecuted implements robot.Observer.
func (m *Metrics) OperationExecuted(workflow string, kind domain.OperationKind) {
	m.operations.WithLabelValues(workflow, string(kind)).Inc()
}

// CheckpointReached implements robot.Observer.
func (m *Metrics) CheckpointReached(workflow string) {
	m.checkpoints.WithLabelValues(workflow).Inc()
}

// LotChanged implements robot.Observer.
func (m *Metrics) LotChanged(workflow, resource string) {
	m.lotChanges.WithLabelValues(workflow, resource).Inc()
}

// TipsUsed implements robot.Observer.
func (m *Metrics) TipsUsed(workflow, pipette string, n int) {
	m.tips.WithLabelValues(workflow, pipette).Add(float64(n))
}

// RunFinished implements robot.Observer.
func (m *Metrics) RunFinished(workflow string, status domain.RunStatus, duration time.Duration) {
	m.runs.WithLabelValues(workflow, string(status)).Inc()
	m.runDuration.WithLabelValues(workflow).Observe(duration.Seconds())
}

// WriteTextfile writes the current values in the text exposition format for
// the node-exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
