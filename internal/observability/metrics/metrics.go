// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "social_schema"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Validation metrics
	ValidationsTotal   *prometheus.CounterVec
	ViolationsTotal    *prometheus.CounterVec
	ValidationDuration *prometheus.HistogramVec

	// Storage metrics
	MongoWritesTotal   *prometheus.CounterVec
	MongoWriteLatency  *prometheus.HistogramVec
	CollectionsApplied *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// RPC metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ValidationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Total number of documents validated",
		}, []string{"collection", "result"}),
		ViolationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Total number of schema violations found",
		}, []string{"collection", "kind"}),
		ValidationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating one document",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"collection"}),

		MongoWritesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mongo_writes_total",
			Help:      "Total number of MongoDB inserts attempted",
		}, []string{"collection", "result"}),
		MongoWriteLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mongo_write_latency_seconds",
			Help:      "MongoDB insert latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"collection"}),
		CollectionsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_provisioned_total",
			Help:      "Collection validators installed, by action",
		}, []string{"collection", "action"}),

		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests",
		}, []string{"transport", "method", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transport", "method"}),
	}
}

// RecordValidation records one validation outcome and its violations by kind.
func (m *Metrics) RecordValidation(collection string, violationKinds []string, durationSeconds float64) {
	result := "valid"
	if len(violationKinds) > 0 {
		result = "invalid"
	}
	m.ValidationsTotal.WithLabelValues(collection, result).Inc()
	m.ValidationDuration.WithLabelValues(collection).Observe(durationSeconds)
	for _, kind := range violationKinds {
		m.ViolationsTotal.WithLabelValues(collection, kind).Inc()
	}
}

// RecordUnknownCollection records a validation request for an unregistered collection.
func (m *Metrics) RecordUnknownCollection() {
	m.ValidationsTotal.WithLabelValues("unknown", "unknown_collection").Inc()
}

// RecordMongoWrite records a MongoDB insert attempt.
func (m *Metrics) RecordMongoWrite(collection string, err error, latencySeconds float64) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MongoWritesTotal.WithLabelValues(collection, result).Inc()
	m.MongoWriteLatency.WithLabelValues(collection).Observe(latencySeconds)
}

// RecordProvision records a validator installed on a collection.
func (m *Metrics) RecordProvision(collection, action string) {
	m.CollectionsApplied.WithLabelValues(collection, action).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordRequest records one API request.
func (m *Metrics) RecordRequest(transport, method, code string, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(transport, method, code).Inc()
	m.RequestDuration.WithLabelValues(transport, method).Observe(durationSeconds)
}
