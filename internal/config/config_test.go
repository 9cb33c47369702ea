package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var allVars = []string{
	"SERVICE_PRINCIPAL", "GRPC_PORT", "HTTP_PORT", "SCHEMA_FILE",
	"MONGO_ENABLED", "MONGO_URI", "MONGO_DATABASE", "MONGO_PROVISION", "MONGO_TIMEOUT",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_ACCEPTED", "KAFKA_TOPIC_REJECTED", "KAFKA_PRINCIPAL",
	"LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR",
}

func clearEnv() {
	for _, v := range allVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	// Service defaults
	if cfg.Service.Principal != "svc-social-schema" {
		t.Errorf("expected default principal 'svc-social-schema', got %s", cfg.Service.Principal)
	}
	if cfg.Service.GRPCPort != "50051" {
		t.Errorf("expected default gRPC port '50051', got %s", cfg.Service.GRPCPort)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default HTTP port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Schema.File != "" {
		t.Errorf("expected embedded schema table by default, got %s", cfg.Schema.File)
	}

	// Mongo defaults
	if cfg.Mongo.Enabled {
		t.Error("expected Mongo disabled by default")
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" {
		t.Errorf("expected default Mongo URI, got %s", cfg.Mongo.URI)
	}
	if cfg.Mongo.Database != "social" {
		t.Errorf("expected default database 'social', got %s", cfg.Mongo.Database)
	}
	if !cfg.Mongo.Provision {
		t.Error("expected provisioning enabled by default")
	}
	if cfg.Mongo.Timeout != 10*time.Second {
		t.Errorf("expected default Mongo timeout 10s, got %v", cfg.Mongo.Timeout)
	}

	// Kafka defaults
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("expected no brokers by default, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.TopicAccepted != "social.document.accepted" {
		t.Errorf("expected default accepted topic, got %s", cfg.Kafka.TopicAccepted)
	}
	if cfg.Kafka.TopicRejected != "social.document.rejected" {
		t.Errorf("expected default rejected topic, got %s", cfg.Kafka.TopicRejected)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogFormat != "json" {
		t.Errorf("expected default log format 'json', got %s", cfg.Observability.LogFormat)
	}
	if cfg.Observability.MetricsAddr != ":9090" {
		t.Errorf("expected default metrics addr ':9090', got %s", cfg.Observability.MetricsAddr)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv()
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("GRPC_PORT", "9999")
	os.Setenv("HTTP_PORT", "8081")
	os.Setenv("SCHEMA_FILE", "/etc/social/collections.yaml")
	os.Setenv("MONGO_ENABLED", "true")
	os.Setenv("MONGO_URI", "mongodb://db:27017")
	os.Setenv("MONGO_DATABASE", "feed")
	os.Setenv("MONGO_PROVISION", "false")
	os.Setenv("MONGO_TIMEOUT", "3s")
	os.Setenv("KAFKA_ENABLED", "1")
	os.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	os.Setenv("KAFKA_TOPIC_ACCEPTED", "acc")
	os.Setenv("KAFKA_TOPIC_REJECTED", "rej")
	os.Setenv("KAFKA_PRINCIPAL", "kafka-user")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "console")
	os.Setenv("METRICS_ADDR", ":9191")
	defer clearEnv()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.GRPCPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.GRPCPort)
	}
	if cfg.Service.HTTPPort != "8081" {
		t.Errorf("expected HTTP port '8081', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Schema.File != "/etc/social/collections.yaml" {
		t.Errorf("expected schema file override, got %s", cfg.Schema.File)
	}
	if !cfg.Mongo.Enabled || cfg.Mongo.URI != "mongodb://db:27017" || cfg.Mongo.Database != "feed" {
		t.Errorf("unexpected Mongo config: %+v", cfg.Mongo)
	}
	if cfg.Mongo.Provision {
		t.Error("expected provisioning disabled")
	}
	if cfg.Mongo.Timeout != 3*time.Second {
		t.Errorf("expected Mongo timeout 3s, got %v", cfg.Mongo.Timeout)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if want := []string{"k1:9092", "k2:9092"}; !reflect.DeepEqual(cfg.Kafka.Brokers, want) {
		t.Errorf("expected brokers %v, got %v", want, cfg.Kafka.Brokers)
	}
	if cfg.Kafka.TopicAccepted != "acc" || cfg.Kafka.TopicRejected != "rej" {
		t.Errorf("unexpected topics: %s / %s", cfg.Kafka.TopicAccepted, cfg.Kafka.TopicRejected)
	}
	if cfg.Kafka.Principal != "kafka-user" {
		t.Errorf("expected Kafka principal 'kafka-user', got %s", cfg.Kafka.Principal)
	}
	if cfg.Observability.LogLevel != "debug" || cfg.Observability.LogFormat != "console" {
		t.Errorf("unexpected logging config: %+v", cfg.Observability)
	}
	if cfg.Observability.MetricsAddr != ":9191" {
		t.Errorf("expected metrics addr ':9191', got %s", cfg.Observability.MetricsAddr)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv()
	os.Setenv("MONGO_ENABLED", "sometimes")
	os.Setenv("MONGO_PROVISION", "invalid")
	os.Setenv("MONGO_TIMEOUT", "soon")
	os.Setenv("KAFKA_ENABLED", "invalid")
	defer clearEnv()

	cfg := Load()

	if cfg.Mongo.Enabled {
		t.Error("expected default Mongo enabled on invalid input")
	}
	if !cfg.Mongo.Provision {
		t.Error("expected default provisioning on invalid input")
	}
	if cfg.Mongo.Timeout != 10*time.Second {
		t.Errorf("expected default timeout on invalid input, got %v", cfg.Mongo.Timeout)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected default Kafka enabled on invalid input")
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	clearEnv()
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	defer clearEnv()

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv()
	defer clearEnv()

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GRPC_PORT=6000\nLOG_LEVEL=warn\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	os.Setenv("LOG_LEVEL", "error")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := Load()
	if cfg.Service.GRPCPort != "6000" {
		t.Errorf("expected port from .env, got %s", cfg.Service.GRPCPort)
	}
	if cfg.Observability.LogLevel != "error" {
		t.Errorf("expected existing env to win over .env, got %s", cfg.Observability.LogLevel)
	}
}
