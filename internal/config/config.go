package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration is the process-wide configuration, read from the environment.
type Configuration struct {
	Service       ServiceConfig
	Schema        SchemaConfig
	Mongo         MongoConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Principal string
	GRPCPort  string
	HTTPPort  string
}

type SchemaConfig struct {
	// File overrides the embedded collection table when set.
	File string
}

type MongoConfig struct {
	Enabled   bool
	URI       string
	Database  string
	Provision bool
	Timeout   time.Duration
}

type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicAccepted string
	TopicRejected string
	Principal     string
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// LoadDotEnv loads variables from .env files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads the configuration from the environment. Unparseable values
// fall back to their defaults.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-social-schema")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		},
		Schema: SchemaConfig{
			File: os.Getenv("SCHEMA_FILE"),
		},
		Mongo: MongoConfig{
			Enabled:   envOrDefaultBool("MONGO_ENABLED", false),
			URI:       envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database:  envOrDefault("MONGO_DATABASE", "social"),
			Provision: envOrDefaultBool("MONGO_PROVISION", true),
			Timeout:   envOrDefaultDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled:       envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:       envList("KAFKA_BROKERS"),
			TopicAccepted: envOrDefault("KAFKA_TOPIC_ACCEPTED", "social.document.accepted"),
			TopicRejected: envOrDefault("KAFKA_TOPIC_REJECTED", "social.document.rejected"),
			Principal:     envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
