package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReconciliationMetrics tracks replay scheduler outcomes
type ReconciliationMetrics struct {
	EnvelopesPassed  prometheus.Counter
	EnvelopesRetried prometheus.Counter
	EnvelopesParked  prometheus.Counter
	BatchDuration    prometheus.Histogram
}

// NewReconciliationMetrics registers reconciliation collectors on the
// default registry
func NewReconciliationMetrics() *ReconciliationMetrics {
	return newReconciliationMetrics(prometheus.DefaultRegisterer)
}

func newReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	factory := promauto.With(reg)
	return &ReconciliationMetrics{
		EnvelopesPassed: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_reconciliation_envelopes_passed_total",
			Help: "Total number of envelopes successfully reconciled",
		}),
		EnvelopesRetried: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_reconciliation_envelopes_retried_total",
			Help: "Total number of transient replay failures left for the next tick",
		}),
		EnvelopesParked: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_reconciliation_envelopes_parked_total",
			Help: "Total number of envelopes parked for manual review",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "corebank_reconciliation_batch_duration_seconds",
			Help:    "Duration of one replay batch",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncPassed records a successful reconciliation
func (m *ReconciliationMetrics) IncPassed() {
	if m == nil {
		return
	}
	m.EnvelopesPassed.Inc()
}

// IncRetried records a transient failure
func (m *ReconciliationMetrics) IncRetried() {
	if m == nil {
		return
	}
	m.EnvelopesRetried.Inc()
}

// IncParked records a permanent failure flagged for manual review
func (m *ReconciliationMetrics) IncParked() {
	if m == nil {
		return
	}
	m.EnvelopesParked.Inc()
}

// ObserveBatch records the duration of a replay batch
func (m *ReconciliationMetrics) ObserveBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(d.Seconds())
}

// DashboardMetrics tracks aggregation engine activity
type DashboardMetrics struct {
	OperationsApplied prometheus.Counter
	OperationsFailed  prometheus.Counter
	AuditDropped      prometheus.Counter
}

// NewDashboardMetrics registers dashboard collectors on the default registry
func NewDashboardMetrics() *DashboardMetrics {
	return newDashboardMetrics(prometheus.DefaultRegisterer)
}

func newDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	factory := promauto.With(reg)
	return &DashboardMetrics{
		OperationsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_dashboard_operations_applied_total",
			Help: "Total number of cash operations folded into branch-day aggregates",
		}),
		OperationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_dashboard_operations_failed_total",
			Help: "Total number of cash operations that failed to apply",
		}),
		AuditDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebank_audit_entries_dropped_total",
			Help: "Total number of audit entries dropped because the buffer was full",
		}),
	}
}

// IncApplied records a successful aggregate mutation
func (m *DashboardMetrics) IncApplied() {
	if m == nil {
		return
	}
	m.OperationsApplied.Inc()
}

// IncFailed records a failed aggregate mutation
func (m *DashboardMetrics) IncFailed() {
	if m == nil {
		return
	}
	m.OperationsFailed.Inc()
}

// IncAuditDropped records a dropped audit entry
func (m *DashboardMetrics) IncAuditDropped() {
	if m == nil {
		return
	}
	m.AuditDropped.Inc()
}
