package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_cache_hits_total",
		Help: "Total number of cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_cache_misses_total",
		Help: "Total number of cache misses",
	})

	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_cache_sets_total",
		Help: "Total number of cache sets",
	})

	CacheDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_cache_deletes_total",
		Help: "Total number of cache deletes",
	})

	CacheHitRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "touchbet_cache_hit_rate",
		Help: "Ratio of cache hits to total lookups",
	})

	CacheOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "touchbet_cache_operation_duration_seconds",
		Help:    "Cache operation latency by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
