package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordValidation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordValidation("Posts", nil, 0.0001)
	m.RecordValidation("Posts", []string{"MissingField", "MissingField", "TypeMismatch"}, 0.0002)

	if got := testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("Posts", "valid")); got != 1 {
		t.Errorf("expected 1 valid validation, got %v", got)
	}
	if got := testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("Posts", "invalid")); got != 1 {
		t.Errorf("expected 1 invalid validation, got %v", got)
	}
	if got := testutil.ToFloat64(m.ViolationsTotal.WithLabelValues("Posts", "MissingField")); got != 2 {
		t.Errorf("expected 2 missing-field violations, got %v", got)
	}
	if got := testutil.ToFloat64(m.ViolationsTotal.WithLabelValues("Posts", "TypeMismatch")); got != 1 {
		t.Errorf("expected 1 type-mismatch violation, got %v", got)
	}
}

func TestRecordMongoWriteAndKafka(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordMongoWrite("Follows", nil, 0.01)
	m.RecordMongoWrite("Follows", errors.New("dup key"), 0.01)
	m.RecordKafkaPublish("rej", "document.rejected", errors.New("broker down"), 0.02)
	m.RecordUnknownCollection()
	m.RecordProvision("Follows", "created")

	if got := testutil.ToFloat64(m.MongoWritesTotal.WithLabelValues("Follows", "error")); got != 1 {
		t.Errorf("expected 1 failed write, got %v", got)
	}
	if got := testutil.ToFloat64(m.KafkaPublishErrors.WithLabelValues("rej", "document.rejected")); got != 1 {
		t.Errorf("expected 1 publish error, got %v", got)
	}
	if got := testutil.ToFloat64(m.ValidationsTotal.WithLabelValues("unknown", "unknown_collection")); got != 1 {
		t.Errorf("expected 1 unknown collection, got %v", got)
	}
	if got := testutil.ToFloat64(m.CollectionsApplied.WithLabelValues("Follows", "created")); got != 1 {
		t.Errorf("expected 1 provisioned collection, got %v", got)
	}
}
