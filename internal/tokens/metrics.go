package tokens

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MetadataCacheHitsTotal tracks cache hits for token metadata.
	MetadataCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_tokens_metadata_cache_hits_total",
		Help: "Total number of token metadata cache hits",
	})

	// MetadataCacheMissesTotal tracks cache misses for token metadata.
	MetadataCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "touchbet_tokens_metadata_cache_misses_total",
		Help: "Total number of token metadata cache misses",
	})
)
