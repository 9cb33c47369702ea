package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed collections.yaml
var defaultTable []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Registry is the immutable table of collection schemas. It is built once
// at process start and shared by every Validator.
type Registry struct {
	order  []string
	byName map[string]*Collection
}

type table struct {
	Collections []Collection `yaml:"collections"`
}

// Default returns the registry built from the embedded collection table.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load(defaultTable)
	})
	return defaultRegistry, defaultErr
}

// MustDefault is like Default but panics if the embedded table is invalid.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Load parses a YAML collection table.
func Load(data []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse schema table: %w", err)
	}
	return NewRegistry(t.Collections)
}

// LoadFile reads and parses a YAML collection table from path.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema table: %w", err)
	}
	return Load(data)
}

// NewRegistry checks the given collections and indexes them by name.
// The registry keeps its own copies; later changes to cols are not seen.
func NewRegistry(cols []Collection) (*Registry, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("schema table declares no collections")
	}

	r := &Registry{
		order:  make([]string, 0, len(cols)),
		byName: make(map[string]*Collection, len(cols)),
	}
	for i := range cols {
		c := cloneCollection(cols[i])
		if c.Name == "" {
			return nil, fmt.Errorf("collection %d has no name", i)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate collection %q", c.Name)
		}
		if err := prepare(c.Name, c.Required, c.Properties); err != nil {
			return nil, fmt.Errorf("collection %s: %w", c.Name, err)
		}
		r.order = append(r.order, c.Name)
		r.byName[c.Name] = c
	}
	return r, nil
}

// Names returns the collection names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Collection returns a copy of the schema registered under name. Changes
// to the copy do not reach the registry.
func (r *Registry) Collection(name string) (*Collection, bool) {
	c, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return cloneCollection(*c), true
}

// Lookup is like Collection but returns an error wrapping
// ErrUnknownCollection when name is not registered.
func (r *Registry) Lookup(name string) (*Collection, error) {
	c, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return cloneCollection(*c), nil
}

// lookup returns the registry's own schema for name, for read-only use
// inside the package.
func (r *Registry) lookup(name string) (*Collection, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return c, nil
}

func cloneCollection(c Collection) *Collection {
	return &Collection{
		Name:       c.Name,
		Required:   append([]string(nil), c.Required...),
		Properties: cloneFields(c.Properties),
	}
}

func cloneFields(props []Field) []Field {
	if props == nil {
		return nil
	}
	out := make([]Field, len(props))
	for i, f := range props {
		out[i] = Field{
			Name:       f.Name,
			Type:       f.Type,
			Aliases:    append([]string(nil), f.Aliases...),
			Enum:       append([]string(nil), f.Enum...),
			Items:      f.Items,
			Required:   append([]string(nil), f.Required...),
			Properties: cloneFields(f.Properties),
			allowed:    f.allowed,
		}
	}
	return out
}
