package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// recordsEmitted tracks emitted records by stream.
	recordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherpa_records_emitted_total",
			Help: "Total number of records emitted by stream",
		},
		[]string{"stream"},
	)

	// streamSyncs tracks completed stream syncs by stream and outcome.
	streamSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherpa_stream_syncs_total",
			Help: "Total number of stream sync runs by stream and status",
		},
		[]string{"stream", "status"}, // "success", "failure"
	)

	// syncDuration tracks stream sync duration.
	syncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sherpa_sync_duration_seconds",
			Help:    "Stream sync duration in seconds by stream",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"stream"},
	)

	// childDispatched tracks child fetches dispatched by parent stream.
	childDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherpa_child_dispatches_total",
			Help: "Total number of child fetches dispatched by parent stream",
		},
		[]string{"stream"},
	)

	// childSuppressed tracks duplicate child fetches suppressed by parent stream.
	childSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherpa_child_suppressed_total",
			Help: "Total number of duplicate child fetches suppressed by parent stream",
		},
		[]string{"stream"},
	)
)
