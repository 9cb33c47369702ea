package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"social-schema-service/internal/config"
)

func testConfig() *config.Configuration {
	return &config.Configuration{
		Service: config.ServiceConfig{Principal: "test"},
	}
}

func TestNew_EmbeddedTable(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := len(a.Registry.Names()); got != 5 {
		t.Errorf("expected 5 collections, got %d", got)
	}
	if a.Admission == nil {
		t.Fatal("expected admission controller")
	}
	if a.Admission.CanWrite() {
		t.Error("expected no store before Start")
	}
	if a.Ready() {
		t.Error("expected not ready before Start")
	}
}

func TestNew_SchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	table := `
collections:
  - name: Tags
    required: [_id]
    properties:
      - name: _id
        bsonType: objectId
`
	if err := os.WriteFile(path, []byte(table), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Schema.File = path
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if names := a.Registry.Names(); len(names) != 1 || names[0] != "Tags" {
		t.Errorf("expected [Tags], got %v", names)
	}
}

func TestNew_MissingSchemaFile(t *testing.T) {
	cfg := testConfig()
	cfg.Schema.File = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := New(cfg); err == nil {
		t.Error("expected error for missing schema file")
	}
}

func TestStartShutdown_WithoutMongo(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !a.Ready() {
		t.Error("expected ready after Start")
	}
	if a.Store != nil {
		t.Error("expected no store when mongo is disabled")
	}

	a.Shutdown(context.Background())
	if a.Ready() {
		t.Error("expected not ready after Shutdown")
	}
}

type fakePinger struct {
	err   error
	calls int
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("ping without deadline")
	}
	return f.err
}

func TestReady_PingsStore(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	p := &fakePinger{}
	a.store = p

	if a.Ready() {
		t.Error("expected not ready before Start")
	}
	if p.calls != 0 {
		t.Errorf("expected no ping before Start, got %d", p.calls)
	}

	a.ready.Store(true)
	if !a.Ready() {
		t.Error("expected ready when the store answers")
	}

	p.err = errors.New("no primary")
	if a.Ready() {
		t.Error("expected not ready when the store ping fails")
	}
	if p.calls != 2 {
		t.Errorf("expected 2 pings, got %d", p.calls)
	}
}
