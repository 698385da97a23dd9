package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerpilot_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	SyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "careerpilot_sync_duration_seconds",
			Help:    "Duration of each ingestion pipeline run in seconds.",
			Buckets: []float64{5, 30, 60, 180, 600},
		},
	)
	SyncStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "careerpilot_sync_step_duration_seconds",
			Help:       "Duration of each step in the ingestion pipeline.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	JobsCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "careerpilot_jobs_created_total",
			Help: "Total number of canonical jobs created.",
		},
	)
	JobsUpdatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "careerpilot_jobs_updated_total",
			Help: "Total number of canonical jobs updated by dedup.",
		},
	)
	SourceErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerpilot_source_errors_total",
			Help: "Total number of per-source fetch errors.",
		},
		[]string{"source"},
	)
)

func Register() {
	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(SyncDuration)
	prometheus.MustRegister(SyncStepDuration)
	prometheus.MustRegister(JobsCreatedCounter)
	prometheus.MustRegister(JobsUpdatedCounter)
	prometheus.MustRegister(SourceErrorsCounter)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
