package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArtifactsTotal counts ingestion attempts.
	// Labels: kind (transcript, image), result (stored, invalid, failed)
	ArtifactsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Subsystem: "ingest",
			Name:      "artifacts_total",
			Help:      "Total number of ingested artifacts by kind and outcome",
		},
		[]string{"kind", "result"},
	)

	// ImageBytes tracks the decoded size of ingested images.
	ImageBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recall",
			Subsystem: "ingest",
			Name:      "image_bytes",
			Help:      "Decoded size of ingested images in bytes",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
	)

	// DescribeDuration tracks how long the vision description call takes.
	DescribeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "recall",
			Subsystem: "ingest",
			Name:      "describe_duration_seconds",
			Help:      "Duration of image description requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)
