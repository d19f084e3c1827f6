package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_requests_total",
		Help: "Feed requests by kind (combined, following, tags).",
	}, []string{"kind"})

	FeedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feed_request_duration_seconds",
		Help:    "Feed computation latency by kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_cache_hits_total",
		Help: "Combined feed pages served from cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_cache_misses_total",
		Help: "Combined feed pages computed after a cache miss.",
	})
)
