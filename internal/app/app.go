package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"social-schema-service/internal/config"
	"social-schema-service/internal/events"
	"social-schema-service/internal/observability/logging"
	"social-schema-service/internal/schema"
	"social-schema-service/internal/service/admission"
	"social-schema-service/internal/store"
)

// Application holds process-wide state for the service. Surfaces must be
// built from Admission after Start, which may attach the document store.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Registry  *schema.Registry
	Validator *schema.Validator
	Publisher *events.Publisher
	Store     *store.Store
	Admission *admission.Controller

	ready atomic.Bool
	store pinger
}

type pinger interface {
	Ping(ctx context.Context) error
}

const readyPingTimeout = 2 * time.Second

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) (*Application, error) {
	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	registry, err := loadRegistry(cfg.Schema.File)
	if err != nil {
		return nil, err
	}
	a.Registry = registry
	a.Validator = schema.New(registry)

	a.Publisher = events.New(&events.Config{
		Enabled:       cfg.Kafka.Enabled,
		Brokers:       cfg.Kafka.Brokers,
		TopicAccepted: cfg.Kafka.TopicAccepted,
		TopicRejected: cfg.Kafka.TopicRejected,
		Principal:     cfg.Kafka.Principal,
	})
	a.Admission = admission.New(a.Validator, nil, a.Publisher)

	appLogger.Info().
		Strs("collections", registry.Names()).
		Str("schemaFile", cfg.Schema.File).
		Msg("Social schema service application created")
	return a, nil
}

func loadRegistry(path string) (*schema.Registry, error) {
	if path == "" {
		return schema.Default()
	}
	r, err := schema.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema file: %w", err)
	}
	return r, nil
}

// Start connects the document store when enabled, installs the collection
// validators and marks the application ready.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Bool("mongoEnabled", a.Cfg.Mongo.Enabled).
		Bool("kafkaEnabled", a.Cfg.Kafka.Enabled).
		Msg("Social schema service starting")

	if a.Cfg.Mongo.Enabled {
		s, err := store.Connect(ctx, store.Config{
			URI:      a.Cfg.Mongo.URI,
			Database: a.Cfg.Mongo.Database,
			Timeout:  a.Cfg.Mongo.Timeout,
		}, a.Validator)
		if err != nil {
			return err
		}
		a.Store = s
		a.store = s

		if a.Cfg.Mongo.Provision {
			if _, err := s.Provision(ctx); err != nil {
				return err
			}
		}
		a.Admission = admission.New(a.Validator, s, a.Publisher)
	}

	a.ready.Store(true)
	return nil
}

// Ready reports whether Start has completed and, when MongoDB is enabled,
// whether its primary answers a ping.
func (a *Application) Ready() bool {
	if !a.ready.Load() {
		return false
	}
	if a.store == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), readyPingTimeout)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("MongoDB ping failed")
		return false
	}
	return true
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown(ctx context.Context) {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	a.ready.Store(false)
	shutdownLogger.Info().Msg("Social schema service shutting down")

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			shutdownLogger.Error().Err(err).Msg("Failed to close publisher")
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			shutdownLogger.Error().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}
}
