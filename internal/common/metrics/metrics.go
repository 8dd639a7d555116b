// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	AssessmentsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_scored_total",
			Help: "Total number of assessments scored",
		},
		[]string{"sector", "maturity_level"},
	)

	AssessmentOverallScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assessment_overall_score",
			Help:    "Distribution of overall readiness scores",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
		[]string{"sector"},
	)

	AssessmentValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_validation_issues_total",
			Help: "Response validation issues by reason",
		},
		[]string{"sector", "reason"},
	)

	AssessmentBenchmarkUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_benchmark_unavailable_total",
			Help: "Assessments scored without a sector benchmark",
		},
		[]string{"sector"},
	)

	DependencyUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_up",
			Help: "1 when the last health check of a backing service succeeded",
		},
		[]string{"dependency"},
	)
)

// RecordScored updates the scoring counters for one result.
func RecordScored(sector, maturityLevel string, overall int, benchmarkUnavailable bool) {
	AssessmentsScored.WithLabelValues(sector, maturityLevel).Inc()
	AssessmentOverallScore.WithLabelValues(sector).Observe(float64(overall))
	if benchmarkUnavailable {
		AssessmentBenchmarkUnavailable.WithLabelValues(sector).Inc()
	}
}

func RecordValidationIssue(sector, reason string) {
	AssessmentValidationIssues.WithLabelValues(sector, reason).Inc()
}

// RecordDependency sets the health gauge for name from a ping result.
func RecordDependency(name string, err error) {
	if err != nil {
		DependencyUp.WithLabelValues(name).Set(0)
		return
	}
	DependencyUp.WithLabelValues(name).Set(1)
}
