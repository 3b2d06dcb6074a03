package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "standings"

var (
	RankingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ranking_duration_seconds",
		Help:      "Time spent serving a ranking.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"cached"})

	RankingRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ranking_rows",
		Help:      "Number of rows in computed rankings.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	ScoreDecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "score_decode_errors_total",
		Help:      "Stored scores that could not be decoded.",
	})

	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluations_total",
		Help:      "Recorded evaluations by final status.",
	}, []string{"status"})

	EventHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_handler_errors_total",
		Help:      "Failed or panicked event handlers.",
	}, []string{"event"})
)
