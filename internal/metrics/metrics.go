// Package metrics exposes gameplay and persistence counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds only rushline metrics, not the process defaults.
	Registry = prometheus.NewRegistry()

	Judgements = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rushline_judgements_total",
			Help: "Judgements given, partitioned by difficulty and result.",
		},
		[]string{"level", "judgement"},
	)
	SessionsStarted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rushline_sessions_started_total",
			Help: "Sessions that reached the playing phase.",
		},
		[]string{"level"},
	)
	SessionsFinished = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rushline_sessions_finished_total",
			Help: "Sessions that ran to the result screen, partitioned by rank.",
		},
		[]string{"level", "rank"},
	)
	SessionsAbandoned = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rushline_sessions_abandoned_total",
			Help: "Sessions exited before finishing.",
		},
	)
	ScoreSubmits = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rushline_score_submits_total",
			Help: "Score submissions, partitioned by whether they improved the best score.",
		},
		[]string{"field", "improved"},
	)
	RemoteWriteFailures = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rushline_remote_write_failures_total",
			Help: "Merge writes to the remote store that failed and were kept pending.",
		},
	)
	Unlocks = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rushline_unlocks_total",
			Help: "Difficulties unlocked.",
		},
		[]string{"level"},
	)
)

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
