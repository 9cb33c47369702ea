package schema

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCoerce_StorageTypes(t *testing.T) {
	r := MustDefault()
	oid, _ := primitive.ObjectIDFromHex(testID)

	in := map[string]any{
		"id":             testID,
		"author_id":      oid,
		"created_at":     "2024-01-01T02:00:00+02:00",
		"type":           "image",
		"tags":           []string{"a", "b"},
		"likes_count":    int32(3),
		"comments_count": json.Number("4"),
		"extra":          "kept",
	}
	out, err := r.Coerce("Posts", in)
	require.NoError(t, err)

	assert.Equal(t, oid, out["_id"])
	assert.NotContains(t, out, "id")
	assert.Equal(t, oid, out["author_id"])
	created, ok := out["created_at"].(time.Time)
	require.True(t, ok)
	assert.True(t, created.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, created.Location())
	assert.Equal(t, "image", out["type"])
	assert.Equal(t, primitive.A{"a", "b"}, out["tags"])
	assert.Equal(t, int64(3), out["likes_count"])
	assert.Equal(t, int64(4), out["comments_count"])
	assert.Equal(t, "kept", out["extra"])

	// input is not modified
	assert.Equal(t, testID, in["id"])
	assert.NotContains(t, in, "_id")

	// coerced document still validates
	assert.NoError(t, New(r).Validate("Posts", out))
}

func TestCoerce_PointerValues(t *testing.T) {
	r := MustDefault()
	oid := primitive.NewObjectID()
	created := time.Date(2024, 1, 1, 2, 0, 0, 0, time.FixedZone("x", 7200))
	text := "nice"

	out, err := r.Coerce("Comments", map[string]any{
		"_id":        &oid,
		"post_id":    testID,
		"author_id":  testID,
		"created_at": &created,
		"text":       &text,
		"likes":      (*int)(nil),
	})
	require.NoError(t, err)

	assert.Equal(t, oid, out["_id"])
	assert.Equal(t, created.UTC(), out["created_at"])
	assert.Equal(t, "nice", out["text"])
	assert.Equal(t, (*int)(nil), out["likes"])
}

func TestCoerce_Nested(t *testing.T) {
	r := MustDefault()

	out, err := r.Coerce("Users", map[string]any{
		"_id": testID,
		"latest_posts_followed": map[string]any{
			"likes_count":     2,
			"newest_comments": map[string]any{"text": "hi"},
		},
		"stats": map[string]any{"posts_count": uint8(9)},
	})
	require.NoError(t, err)

	feed := out["latest_posts_followed"].(map[string]any)
	assert.Equal(t, int64(2), feed["likes_count"])
	assert.Equal(t, map[string]any{"text": "hi"}, feed["newest_comments"])
	assert.Equal(t, int64(9), out["stats"].(map[string]any)["posts_count"])
}

func TestCoerce_UnknownCollection(t *testing.T) {
	_, err := MustDefault().Coerce("Widgets", map[string]any{})
	assert.True(t, errors.Is(err, ErrUnknownCollection))
}

func TestNormalize(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"likes_count": 12,
		"ratio": 0.5,
		"stats": {"posts_count": 3},
		"location": [1, 2.5]
	}`), &decoded))

	out := Normalize(decoded)
	assert.Equal(t, int64(12), out["likes_count"])
	assert.Equal(t, 0.5, out["ratio"])
	assert.Equal(t, int64(3), out["stats"].(map[string]any)["posts_count"])
	assert.Equal(t, []any{int64(1), 2.5}, out["location"])

	// decoded input keeps float64
	assert.Equal(t, float64(12), decoded["likes_count"])
	assert.Nil(t, Normalize(nil))
}

func TestNormalize_JSONNumber(t *testing.T) {
	out := Normalize(map[string]any{
		"a": json.Number("7"),
		"b": json.Number("7.25"),
	})
	assert.Equal(t, int64(7), out["a"])
	assert.Equal(t, 7.25, out["b"])
}
