// Package metrics provides Prometheus metrics for the effectivity service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aster"

var (
	// ResolutionsTotal counts resolver outcomes by query and outcome.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of resolution queries by query and outcome",
		},
		[]string{"query", "outcome"},
	)

	// ResolutionDuration tracks resolver latency in seconds.
	ResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "duration_seconds",
			Help:      "Duration of resolution queries in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"query"},
	)

	// OverlappingRangesTotal counts serials that matched more than one curated range.
	OverlappingRangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "overlapping_ranges_total",
			Help:      "Total number of configuration lookups that matched overlapping curated ranges",
		},
	)

	// CuratedCacheTotal counts curated snapshot cache hits and misses.
	CuratedCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "curated_cache",
			Name:      "lookups_total",
			Help:      "Total number of curated snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	// SeedRunsTotal counts seeding runs by status (seeded, skipped, failed).
	SeedRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seeding",
			Name:      "runs_total",
			Help:      "Total number of effectivity seeding runs by status",
		},
		[]string{"status"},
	)

	// SeedDuration tracks seeding duration in seconds.
	SeedDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "seeding",
			Name:      "duration_seconds",
			Help:      "Duration of effectivity seeding runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// DataQualityWarningsTotal counts data-quality findings by kind.
	DataQualityWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "seeding",
			Name:      "data_quality_warnings_total",
			Help:      "Total number of data-quality warnings raised while seeding, by kind",
		},
		[]string{"kind"},
	)

	// HTTPRequestsTotal tracks outbound HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	// HTTPRequestDuration tracks outbound HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http_client",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound HTTP requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method"},
	)

	// APIRequestsTotal tracks inbound API requests by route template.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by route, method and status",
		},
		[]string{"route", "method", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// KafkaPublishTotal tracks Kafka publishes by topic and status.
	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "publish_total",
			Help:      "Total number of Kafka publishes by topic and status",
		},
		[]string{"topic", "status"},
	)
)

func RecordResolution(query, outcome string, durationSeconds float64) {
	ResolutionsTotal.WithLabelValues(query, outcome).Inc()
	ResolutionDuration.WithLabelValues(query).Observe(durationSeconds)
}

func RecordOverlap() {
	OverlappingRangesTotal.Inc()
}

func RecordCacheLookup(hit bool) {
	if hit {
		CuratedCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	CuratedCacheTotal.WithLabelValues("miss").Inc()
}

func RecordSeedRun(status string, durationSeconds float64) {
	SeedRunsTotal.WithLabelValues(status).Inc()
	SeedDuration.Observe(durationSeconds)
}

func RecordDataQualityWarning(kind string) {
	DataQualityWarningsTotal.WithLabelValues(kind).Inc()
}

func RecordHTTPRequest(method string, statusCode int, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordAPIRequest expects the route template, never the raw path, to keep label
// cardinality bounded by the number of registered routes.
func RecordAPIRequest(route, method string, statusCode int, durationSeconds float64) {
	APIRequestsTotal.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(route, method).Observe(durationSeconds)
}

func RecordKafkaPublish(topic, status string) {
	KafkaPublishTotal.WithLabelValues(topic, status).Inc()
}
