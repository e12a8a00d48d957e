package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts queries by outcome.
	// Labels: result (answered, invalid, failed)
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Subsystem: "query",
			Name:      "queries_total",
			Help:      "Total number of context queries by outcome",
		},
		[]string{"result"},
	)

	// CitationsTotal counts answers that cited an image timestamp.
	CitationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recall",
			Subsystem: "query",
			Name:      "citations_total",
			Help:      "Total number of answers citing a captured image",
		},
	)

	// FallbackAnswersTotal counts replies that carried no usable answer text.
	FallbackAnswersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recall",
			Subsystem: "query",
			Name:      "fallback_answers_total",
			Help:      "Total number of replies replaced by the fallback answer",
		},
	)

	// QueryDuration tracks end-to-end query latency including the model call.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recall",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Duration of context queries in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// ContextBytes tracks the size of the rendered context sent to the model.
	ContextBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recall",
			Subsystem: "query",
			Name:      "context_bytes",
			Help:      "Size of the assembled context in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 9),
		},
	)
)
