package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "octo_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ledgerWrites       *prometheus.CounterVec
	ledgerWriteLatency *prometheus.HistogramVec

	summaryTotal    *prometheus.CounterVec
	summaryLatency  *prometheus.HistogramVec
	summaryWarnings prometheus.Counter

	scheduleGenerateTotal   *prometheus.CounterVec
	scheduleGenerateLatency *prometheus.HistogramVec

	taskTransitions *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ledgerWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ledger_writes_total",
				Help: "Total ledger writes by entity and result",
			},
			[]string{"entity", "result"},
		)
		ledgerWriteLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ledger_write_latency_seconds",
				Help:    "Ledger write latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity", "result"},
		)

		summaryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "summary_total",
				Help: "Total fund summary computations by result",
			},
			[]string{"result"},
		)
		summaryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "summary_latency_seconds",
				Help:    "Fund summary latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		summaryWarnings = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "summary_consistency_warnings_total",
				Help: "Total consistency warnings raised by summaries",
			},
		)

		scheduleGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "schedule_generate_total",
				Help: "Total schedule generations by result",
			},
			[]string{"result"},
		)
		scheduleGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "schedule_generate_latency_seconds",
				Help:    "Schedule generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		taskTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "task_transitions_total",
				Help: "Total task status transitions by target status and result",
			},
			[]string{"status", "result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			ledgerWrites,
			ledgerWriteLatency,
			summaryTotal,
			summaryLatency,
			summaryWarnings,
			scheduleGenerateTotal,
			scheduleGenerateLatency,
			taskTransitions,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveLedgerWrite records a ledger write by entity kind and result.
func ObserveLedgerWrite(entity, result string, duration time.Duration) {
	if entity == "" {
		entity = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if ledgerWrites != nil {
		ledgerWrites.WithLabelValues(entity, result).Inc()
	}
	if ledgerWriteLatency != nil {
		ledgerWriteLatency.WithLabelValues(entity, result).Observe(duration.Seconds())
	}
}

// ObserveSummary records a summary computation and its warning count.
func ObserveSummary(result string, warnings int, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if summaryTotal != nil {
		summaryTotal.WithLabelValues(result).Inc()
	}
	if summaryLatency != nil {
		summaryLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if summaryWarnings != nil && warnings > 0 {
		summaryWarnings.Add(float64(warnings))
	}
}

// ObserveScheduleGenerate records a schedule generation.
func ObserveScheduleGenerate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if scheduleGenerateTotal != nil {
		scheduleGenerateTotal.WithLabelValues(result).Inc()
	}
	if scheduleGenerateLatency != nil {
		scheduleGenerateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncTaskTransition increments the transition counter.
func IncTaskTransition(status, result string) {
	if status == "" {
		status = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if taskTransitions != nil {
		taskTransitions.WithLabelValues(status, result).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
