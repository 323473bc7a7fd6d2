package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric names accepted by the recorder
const (
	MetricLedgerSuccess     = "ledger.operation.success"
	MetricLedgerRejected    = "ledger.operation.rejected"
	MetricLedgerDuration    = "ledger.operation"
	MetricTransactionAmount = "ledger.transaction.amount"
	MetricEventPublished    = "ledger.event.published"
	MetricEventFailed       = "ledger.event.failed"
	MetricBudgetReconciled  = "budget.reconciled"
	MetricBudgetsDrifting   = "budget.drifting"
	MetricOwnerCreated      = "owner.created"
	MetricOwnerDeleted      = "owner.deleted"
	MetricAuthEvent         = "authentication.event"
	MetricMaintenancePurged = "maintenance.purged"
)

type PrometheusMetrics struct {
	ledgerOperations          *prometheus.CounterVec
	ledgerDuration            prometheus.Histogram
	transactionAmount         prometheus.Histogram
	eventsPublished           *prometheus.CounterVec
	budgetReconciliations     *prometheus.CounterVec
	budgetsDrifting           prometheus.Gauge
	ownersCreated             prometheus.Counter
	ownersDeleted             prometheus.Counter
	authenticationEventsTotal *prometheus.CounterVec
	maintenancePurged         *prometheus.CounterVec
}

// NewPrometheusMetrics registers the ledger metrics on reg
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		ledgerOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operations_total",
				Help: "Total number of ledger operations by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		ledgerDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_operation_duration_milliseconds",
				Help:    "Ledger operation duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		transactionAmount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ledger_transaction_amount",
				Help:    "Transaction amount in currency units",
				Buckets: prometheus.ExponentialBuckets(1, 10, 8),
			},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_events_total",
				Help: "Total number of ledger events by publish outcome",
			},
			[]string{"status"},
		),
		budgetReconciliations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_reconciliations_total",
				Help: "Total number of budget reconciliations",
			},
			[]string{"repaired"},
		),
		budgetsDrifting: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "budgets_drifting",
				Help: "Budgets whose stored spent differs from their transactions at the last report",
			},
		),
		ownersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "owners_created_total",
				Help: "Total number of owners created",
			},
		),
		ownersDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "owners_deleted_total",
				Help: "Total number of owners deleted",
			},
		),
		authenticationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
		maintenancePurged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "maintenance_purged_rows_total",
				Help: "Rows removed by scheduled maintenance",
			},
			[]string{"table"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	operation := tags["operation"]

	switch name {
	case MetricLedgerSuccess:
		m.ledgerOperations.WithLabelValues(operation, "success").Inc()
	case MetricLedgerRejected:
		m.ledgerOperations.WithLabelValues(operation, "rejected_"+tags["reason"]).Inc()
	case MetricEventPublished:
		m.eventsPublished.WithLabelValues("published").Inc()
	case MetricEventFailed:
		m.eventsPublished.WithLabelValues("failed").Inc()
	case MetricBudgetReconciled:
		m.budgetReconciliations.WithLabelValues(tags["repaired"]).Inc()
	case MetricOwnerCreated:
		m.ownersCreated.Inc()
	case MetricOwnerDeleted:
		m.ownersDeleted.Inc()
	case MetricAuthEvent:
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEventsTotal.WithLabelValues(eventType).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case MetricLedgerDuration:
		m.ledgerDuration.Observe(float64(duration.Milliseconds()))
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case MetricTransactionAmount:
		m.transactionAmount.Observe(value)
	case MetricBudgetsDrifting:
		m.budgetsDrifting.Set(value)
	case MetricMaintenancePurged:
		if table := tags["table"]; table != "" {
			m.maintenancePurged.WithLabelValues(table).Add(value)
		}
	}
}
