package judgesrvc

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "judge_jobs_processed_total", Help: "Judge jobs processed to completion"},
	)
	jobsRetried = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "judge_jobs_retried_total", Help: "Transient evaluator failures retried"},
	)
	jobsDeadLettered = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "judge_jobs_dead_lettered_total", Help: "Judge jobs routed to the dead-letter queue"},
	)
	matchesFinalized = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matches_finalized_total", Help: "Matches closed by the finalizer"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(jobsProcessed, jobsRetried, jobsDeadLettered, matchesFinalized)
}
