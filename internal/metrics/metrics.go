package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aura"

// Agent metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of generated embeddings by input kind and status",
		},
		[]string{"kind", "status"},
	)

	StylingItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "styling_items_total",
			Help:      "Styling items processed, labelled by outcome and failing stage",
		},
		[]string{"status", "stage"},
	)

	ComposeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compose_duration_seconds",
			Help:      "Image composition call duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model", "status"},
	)

	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by routing outcome",
		},
		[]string{"outcome"},
	)

	LLMCostUSDTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_cost_usd_total",
			Help:      "Accumulated LLM usage cost in USD",
		},
		[]string{"model"},
	)
)

var registerOnce sync.Once

// Register adds every collector to reg. Must be called once from main; later calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			EmbeddingRequestsTotal,
			StylingItemsTotal,
			ComposeDuration,
			ChatTurnsTotal,
			LLMCostUSDTotal,
		)
	})
}
