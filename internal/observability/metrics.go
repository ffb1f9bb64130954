package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userdata_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "userdata_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// KafkaMessagesTotal counts consumed Kafka messages by topic and outcome.
	KafkaMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userdata_kafka_messages_total",
		Help: "Total number of consumed Kafka messages",
	}, []string{"topic", "result"})

	// PageContentSize records how many items paged endpoints return.
	PageContentSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "userdata_page_content_size",
		Help:    "Number of items returned per paged response",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 500, 2000},
	}, []string{"endpoint"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
