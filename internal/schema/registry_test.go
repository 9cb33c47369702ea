package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_DeclaresFiveCollections(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"Reactions", "Comments", "Posts", "Users", "Follows"}, r.Names())

	users, ok := r.Collection("Users")
	require.True(t, ok)
	assert.Equal(t, []string{"_id", "latest_posts_followed"}, users.Required)

	stats, ok := users.Field("stats")
	require.True(t, ok)
	assert.Equal(t, TypeObject, stats.Type)
	assert.Len(t, stats.Properties, 3)
	assert.Empty(t, stats.Required)

	id, ok := users.Field("_id")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, id.Aliases)
}

func TestRegistry_Lookup(t *testing.T) {
	r := MustDefault()

	c, err := r.Lookup("Posts")
	require.NoError(t, err)
	assert.Equal(t, "Posts", c.Name)

	_, err = r.Lookup("posts")
	assert.True(t, errors.Is(err, ErrUnknownCollection))
}

func TestRegistry_NamesIsACopy(t *testing.T) {
	r := MustDefault()
	names := r.Names()
	names[0] = "Changed"
	assert.Equal(t, "Reactions", r.Names()[0])
}

func TestRegistry_CollectionIsACopy(t *testing.T) {
	r := MustDefault()

	c, ok := r.Collection("Follows")
	require.True(t, ok)
	c.Required[0] = "nothing"
	c.Properties[1].Type = TypeString
	c.Properties = c.Properties[:1]

	looked, err := r.Lookup("Follows")
	require.NoError(t, err)
	looked.Required = nil

	again, _ := r.Collection("Follows")
	assert.Equal(t, []string{"_id", "follower_id", "followee_id", "created_at"}, again.Required)
	f, ok := again.Field("follower_id")
	require.True(t, ok)
	assert.Equal(t, TypeObjectID, f.Type)

	assert.Equal(t, []Violation{{Kind: MissingField, Field: "_id"}},
		Violations(New(r).Validate("Follows", map[string]any{
			"follower_id": testID, "followee_id": testID, "created_at": testTime,
		})))
}

func TestField_Allows(t *testing.T) {
	r := MustDefault()
	c, _ := r.Collection("Reactions")
	f, ok := c.Field("type")
	require.True(t, ok)

	assert.True(t, f.Allows("angry"))
	assert.False(t, f.Allows("Angry"))
	assert.False(t, f.Allows(""))
}

func TestLoad_RejectsBadTables(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no collections",
			yaml:    "collections: []",
			wantErr: "declares no collections",
		},
		{
			name:    "malformed yaml",
			yaml:    "collections: [",
			wantErr: "parse schema table",
		},
		{
			name: "unknown type",
			yaml: `
collections:
  - name: A
    properties:
      - {name: x, bsonType: decimal}
`,
			wantErr: `unknown bsonType "decimal"`,
		},
		{
			name: "enum without values",
			yaml: `
collections:
  - name: A
    properties:
      - {name: kind, bsonType: enum}
`,
			wantErr: "enum without values",
		},
		{
			name: "enum values on string",
			yaml: `
collections:
  - name: A
    properties:
      - {name: kind, bsonType: string, enum: [a]}
`,
			wantErr: "enum values on a string field",
		},
		{
			name: "required not declared",
			yaml: `
collections:
  - name: A
    required: [missing]
    properties:
      - {name: x, bsonType: string}
`,
			wantErr: `required field "missing" is not declared`,
		},
		{
			name: "nested required not declared",
			yaml: `
collections:
  - name: A
    properties:
      - name: o
        bsonType: object
        required: [y]
        properties:
          - {name: x, bsonType: int}
`,
			wantErr: `A.o: required field "y" is not declared`,
		},
		{
			name: "items on string",
			yaml: `
collections:
  - name: A
    properties:
      - {name: x, bsonType: string, items: string}
`,
			wantErr: "items on a string field",
		},
		{
			name: "object items",
			yaml: `
collections:
  - name: A
    properties:
      - {name: x, bsonType: array, items: object}
`,
			wantErr: `unsupported items type "object"`,
		},
		{
			name: "properties on scalar",
			yaml: `
collections:
  - name: A
    properties:
      - name: x
        bsonType: string
        properties:
          - {name: y, bsonType: int}
`,
			wantErr: "properties on a string field",
		},
		{
			name: "duplicate collection",
			yaml: `
collections:
  - name: A
  - name: A
`,
			wantErr: `duplicate collection "A"`,
		},
		{
			name: "duplicate field",
			yaml: `
collections:
  - name: A
    properties:
      - {name: x, bsonType: int}
      - {name: x, bsonType: string}
`,
			wantErr: "A.x: duplicate property",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
collections:
  - name: Notes
    required: [_id]
    properties:
      - {name: _id, bsonType: objectId}
      - {name: body, bsonType: string}
`), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Notes"}, r.Names())

	v := New(r)
	assert.NoError(t, v.Validate("Notes", map[string]any{"_id": testID, "body": "hi"}))
	assert.Equal(t, []Violation{{Kind: MissingField, Field: "_id"}}, Violations(v.Validate("Notes", map[string]any{})))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewRegistry_KeepsOwnCopy(t *testing.T) {
	cols := []Collection{{
		Name:     "A",
		Required: []string{"x"},
		Properties: []Field{
			{Name: "x", Type: TypeString},
		},
	}}
	r, err := NewRegistry(cols)
	require.NoError(t, err)

	cols[0].Properties[0].Type = TypeInt
	v := New(r)
	assert.NoError(t, v.Validate("A", map[string]any{"x": "still a string"}))
}
