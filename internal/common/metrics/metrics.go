package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Compile cycle outcomes, used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeParseError   = "parse_error"
	OutcomeSchemaError  = "schema_error"
	OutcomeModeDisabled = "mode_disabled"
	OutcomeIntakeError  = "intake_error"
	OutcomeError        = "error"
)

var (
	CompilerCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compiler_cycles_total",
			Help: "Total number of compile cycles by outcome",
		},
		[]string{"outcome"},
	)

	CompilerSchemaViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compiler_schema_violations_total",
			Help: "Total number of schema violations reported across all cycles",
		},
	)

	CompilerVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compiler_verdicts_total",
			Help: "Normalized readiness verdicts of successful cycles",
		},
		[]string{"verdict"},
	)

	CompilerCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compiler_cycle_duration_seconds",
			Help:    "Duration of a compile cycle in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"outcome"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// VerdictLabel keeps the verdict label set bounded: unrecognized verdicts are
// counted as "other".
func VerdictLabel(verdict string) string {
	switch verdict {
	case "apply_now", "do_not_apply_yet":
		return verdict
	}
	return "other"
}
