package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2v_messages_received_total",
		Help: "Telemetry messages read from client channels.",
	})

	MessagesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2v_messages_rejected_total",
		Help: "Telemetry messages rejected before processing.",
	}, []string{"reason"})

	ThreatsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2v_threats_emitted_total",
		Help: "Threat notifications produced by the predictor bank.",
	}, []string{"type"})

	NeighborsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2v_neighbors_skipped_total",
		Help: "Neighbors dropped for missing payloads or stale timestamps.",
	})

	StoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2v_store_failures_total",
		Help: "Redis operations that returned an error.",
	})

	PushDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2v_push_drops_total",
		Help: "Counterpart notifications dropped on full or closed channels.",
	})
)
