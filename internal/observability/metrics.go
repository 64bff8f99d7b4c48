// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbnb_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by kind and result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbnb_cache_lookups_total",
		Help: "Cache-aside lookups by entity kind and result",
	}, []string{"kind", "result"})

	// DatabaseQueryLatency records repository latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hbnb_database_query_latency_seconds",
		Help:    "Repository query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EntityMutations counts successful writes by kind and operation.
	EntityMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbnb_entity_mutations_total",
		Help: "Successful entity writes by kind and operation",
	}, []string{"kind", "operation"})

	// PolicyDenials counts authorization rejections by rule.
	PolicyDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hbnb_policy_denials_total",
		Help: "Authorization rejections by violated rule",
	}, []string{"rule"})
)

// TrackQuery returns a function that records query latency when called.
//
//	defer observability.TrackQuery("get", "places")()
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
