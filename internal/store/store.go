// Package store installs the collection validators in MongoDB and writes
// documents that pass the schema check.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"social-schema-service/internal/observability/logging"
	"social-schema-service/internal/observability/metrics"
	"social-schema-service/internal/schema"
)

// ErrStoreDisabled is returned when a write is requested without a store.
var ErrStoreDisabled = errors.New("document store is not configured")

// Provision actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

const (
	validationLevel  = "strict"
	validationAction = "error"
)

// Config holds MongoDB connection settings.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Store wraps one MongoDB database holding the social collections.
type Store struct {
	db        *mongo.Database
	validator *schema.Validator
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// ProvisionResult reports what Provision did to one collection.
type ProvisionResult struct {
	Collection string `json:"collection"`
	Action     string `json:"action"`
}

// Connect dials MongoDB, checks the primary is reachable and returns a
// Store over cfg.Database.
func Connect(ctx context.Context, cfg Config, v *schema.Validator) (*Store, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		opts.SetServerSelectionTimeout(cfg.Timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return New(client.Database(cfg.Database), v), nil
}

// New returns a Store over an existing database handle.
func New(db *mongo.Database, v *schema.Validator) *Store {
	return &Store{
		db:        db,
		validator: v,
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithComponent("store"),
	}
}

// Provision installs the $jsonSchema validator of every registered
// collection. Missing collections are created; existing ones get their
// validator replaced with collMod.
func (s *Store) Provision(ctx context.Context) ([]ProvisionResult, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	existing := make(map[string]struct{}, len(names))
	for _, n := range names {
		existing[n] = struct{}{}
	}

	registry := s.validator.Registry()
	results := make([]ProvisionResult, 0, len(registry.Names()))
	for _, name := range registry.Names() {
		c, _ := registry.Collection(name)

		action := ActionCreated
		if _, ok := existing[name]; ok {
			action = ActionUpdated
			err = s.db.RunCommand(ctx, collModCommand(c)).Err()
		} else {
			err = s.db.CreateCollection(ctx, name, createOptions(c))
		}
		if err != nil {
			return results, fmt.Errorf("provision %s: %w", name, err)
		}

		s.metrics.RecordProvision(name, action)
		s.logger.Info().
			Str("collection", name).
			Str("action", action).
			Msg("Collection validator installed")
		results = append(results, ProvisionResult{Collection: name, Action: action})
	}
	return results, nil
}

// Insert validates doc, converts it to storage types and inserts it. It
// returns the inserted _id rendered as a string.
func (s *Store) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	if err := s.validator.Validate(collection, doc); err != nil {
		return "", err
	}
	stored, err := s.validator.Registry().Coerce(collection, doc)
	if err != nil {
		return "", err
	}

	start := time.Now()
	res, err := s.db.Collection(collection).InsertOne(ctx, stored)
	s.metrics.RecordMongoWrite(collection, err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return formatID(res.InsertedID), nil
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func collModCommand(c *schema.Collection) bson.D {
	return bson.D{
		{Key: "collMod", Value: c.Name},
		{Key: "validator", Value: c.ValidatorDocument()},
		{Key: "validationLevel", Value: validationLevel},
		{Key: "validationAction", Value: validationAction},
	}
}

func createOptions(c *schema.Collection) *options.CreateCollectionOptions {
	return options.CreateCollection().
		SetValidator(c.ValidatorDocument()).
		SetValidationLevel(validationLevel).
		SetValidationAction(validationAction)
}

func formatID(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
