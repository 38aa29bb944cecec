package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsCreatedTotal, jobsFinalizedTotal, jobDurationMs, jobClaimEmpty)
}

var jobsCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_jobs_created_total",
		Help: "Total generation jobs enqueued, labeled by generation type.",
	},
	[]string{"type"},
)

var jobsFinalizedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_jobs_finalized_total",
		Help: "Total jobs finalized, labeled by outcome.",
	},
	[]string{"outcome"}, // 'completed', 'requeued', 'failed', 'cancelled'
)

var jobDurationMs = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "generation_job_duration_ms",
		Help:    "Wall time from claim to completion in milliseconds.",
		Buckets: []float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
	},
)

var jobClaimEmpty = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "generation_job_claim_empty_total",
		Help: "Worker ticks that found no claimable job.",
	},
)

func IncJobCreated(genType string) { jobsCreatedTotal.WithLabelValues(norm(genType)).Inc() }

func IncJobFinalized(outcome string) { jobsFinalizedTotal.WithLabelValues(norm(outcome)).Inc() }

func ObserveJobDuration(ms int64) { jobDurationMs.Observe(float64(ms)) }

func IncClaimEmpty() { jobClaimEmpty.Inc() }
