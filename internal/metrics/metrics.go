package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests by outcome",
		},
		[]string{"outcome"},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_results",
			Help:    "Number of resources returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	DialogueActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dialogue_actions_total",
			Help: "Actions chosen by the dialogue policy",
		},
		[]string{"action"},
	)

	CompletionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_requests_total",
			Help: "Requests sent to the completion service",
		},
		[]string{"mode", "outcome"},
	)

	CompletionFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_fallbacks_total",
			Help: "Replies served from the local fallback",
		},
		[]string{"reason"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "completion_duration_seconds",
			Help:    "Duration of completion requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	CategoryCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "category_cache_lookups_total",
			Help: "Category cache lookups by result (memory, redis, store, missing)",
		},
		[]string{"result"},
	)
)
