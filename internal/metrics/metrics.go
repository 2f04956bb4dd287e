// Package metrics registers Prometheus instruments for the onboarding
// pipeline. Served at /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholaris_onboarding_jobs_processed_total",
		Help: "Setup jobs that completed successfully.",
	})

	JobsRetried = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholaris_onboarding_jobs_retried_total",
		Help: "Setup job attempts that failed and were rescheduled.",
	})

	JobsDeadLettered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholaris_onboarding_jobs_dead_lettered_total",
		Help: "Setup jobs that exhausted their attempts.",
	})

	DraftsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholaris_onboarding_drafts_swept_total",
		Help: "Stale processing drafts failed by the sweeper.",
	})

	DraftsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholaris_onboarding_drafts_pruned_total",
		Help: "Completed drafts removed by the pruner.",
	})
)
