// Package admission runs the schema check in front of document writes and
// reports each outcome as an event.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-schema-service/internal/models"
	"social-schema-service/internal/observability/logging"
	"social-schema-service/internal/observability/metrics"
	"social-schema-service/internal/schema"
	"social-schema-service/internal/store"
)

// Writer persists a document that has passed validation.
type Writer interface {
	Insert(ctx context.Context, collection string, doc map[string]any) (string, error)
}

// Publisher emits document events.
type Publisher interface {
	Publish(ctx context.Context, ev *models.DocumentEvent) error
}

// Controller validates documents, optionally stores them, and publishes
// the outcome. Publishing is best-effort: failures are logged, not returned.
type Controller struct {
	validator *schema.Validator
	writer    Writer
	publisher Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Controller. writer and publisher may be nil.
func New(v *schema.Validator, w Writer, p Publisher) *Controller {
	return &Controller{
		validator: v,
		writer:    w,
		publisher: p,
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithComponent("admission"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Registry returns the schema table used for validation.
func (c *Controller) Registry() *schema.Registry {
	return c.validator.Registry()
}

// CanWrite reports whether a document store is configured.
func (c *Controller) CanWrite() bool {
	return c.writer != nil
}

// Check validates doc against the named collection and publishes an
// accepted or rejected event. It returns the validator's error.
func (c *Controller) Check(ctx context.Context, collection string, doc map[string]any) error {
	err := c.validate(collection, doc)
	if errors.Is(err, schema.ErrUnknownCollection) {
		return err
	}
	c.publish(ctx, collection, documentID(doc), false, schema.Violations(err))
	return err
}

// Write validates doc and, if it conforms, inserts it through the store.
// It returns the stored document id.
func (c *Controller) Write(ctx context.Context, collection string, doc map[string]any) (string, error) {
	if c.writer == nil {
		return "", store.ErrStoreDisabled
	}

	if err := c.validate(collection, doc); err != nil {
		if violations := schema.Violations(err); violations != nil {
			c.publish(ctx, collection, documentID(doc), false, violations)
		}
		return "", err
	}

	id, err := c.writer.Insert(ctx, collection, doc)
	if err != nil {
		c.logger.Error().Err(err).Str("collection", collection).Msg("Failed to store document")
		return "", err
	}
	c.publish(ctx, collection, id, true, nil)
	return id, nil
}

func (c *Controller) validate(collection string, doc map[string]any) error {
	start := c.now()
	err := c.validator.Validate(collection, doc)
	if errors.Is(err, schema.ErrUnknownCollection) {
		c.metrics.RecordUnknownCollection()
		return err
	}

	violations := schema.Violations(err)
	kinds := make([]string, len(violations))
	for i, v := range violations {
		kinds[i] = string(v.Kind)
	}
	c.metrics.RecordValidation(collection, kinds, c.now().Sub(start).Seconds())

	if len(violations) > 0 {
		logger := logging.WithCollection("admission", collection)
		logger.Debug().
			Int("violations", len(violations)).
			Str("error", err.Error()).
			Msg("Document rejected")
	}
	return err
}

func (c *Controller) publish(ctx context.Context, collection, docID string, stored bool, violations []schema.Violation) {
	if c.publisher == nil {
		return
	}

	eventType := models.EventDocumentAccepted
	if len(violations) > 0 {
		eventType = models.EventDocumentRejected
	}
	ev := &models.DocumentEvent{
		EventID:    c.newID(),
		EventType:  eventType,
		Collection: collection,
		DocumentID: docID,
		Stored:     stored,
		Violations: violations,
		Timestamp:  c.now().UnixMilli(),
	}
	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.logger.Warn().
			Err(err).
			Str("collection", collection).
			Str("eventType", eventType).
			Msg("Failed to publish document event")
	}
}

// documentID renders the document's identifier, if any, for events.
func documentID(doc map[string]any) string {
	for _, key := range []string{"_id", "id"} {
		switch v := doc[key].(type) {
		case nil:
			continue
		case primitive.ObjectID:
			return v.Hex()
		case string:
			return v
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}
