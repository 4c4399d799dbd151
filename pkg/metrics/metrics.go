package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts cache lookups served without touching the durable store,
	// labelled by entity (user|profile) and lookup dimension (id|username|email|list|search).
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userhub_cache_hits_total",
			Help: "Total number of repository cache hits",
		},
		[]string{"entity", "dimension"},
	)

	// CacheMisses counts lookups that fell through to the durable store. Misses
	// include absent keys, decode failures, and cache outages.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userhub_cache_misses_total",
			Help: "Total number of repository cache misses",
		},
		[]string{"entity", "dimension"},
	)

	// CachePopulateFailures counts best-effort cache writes that were dropped.
	CachePopulateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userhub_cache_populate_failures_total",
			Help: "Total number of failed cache population attempts",
		},
		[]string{"entity"},
	)

	// CacheInvalidations counts invalidation sweeps triggered by writes.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userhub_cache_invalidations_total",
			Help: "Total number of cache invalidation sweeps",
		},
		[]string{"entity", "reason"},
	)
)
