package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// typeName classifies a runtime value using BSON type names.
func typeName(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case primitive.ObjectID:
		return "objectId"
	case time.Time, primitive.DateTime:
		return "date"
	case primitive.Timestamp:
		return "timestamp"
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return "int"
		}
		return "double"
	case bson.D:
		return "object"
	case []byte, primitive.Binary:
		return "binData"
	case primitive.Null:
		return "null"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return "uint64"
		}
		return "int"
	case reflect.Float32, reflect.Float64:
		return "double"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map:
		return "object"
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return typeName(rv.Elem().Interface())
	}
	return fmt.Sprintf("%T", v)
}

// deref follows a non-nil pointer once. A nil pointer is returned as
// untyped nil so it classifies as null.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}

// matchesScalar reports whether v satisfies one of the scalar declared types.
// Integers must fit in an int64.
func matchesScalar(t BSONType, v any) bool {
	v = deref(v)
	switch t {
	case TypeObjectID:
		_, ok := asObjectID(v)
		return ok
	case TypeDate:
		_, ok := asTime(v)
		return ok
	case TypeInt:
		_, ok := asInt64(v)
		return ok
	case TypeString, TypeBool:
		return typeName(v) == string(t)
	}
	return false
}

func asObjectID(v any) (primitive.ObjectID, bool) {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x, true
	case string:
		id, err := primitive.ObjectIDFromHex(x)
		return id, err == nil
	}
	return primitive.NilObjectID, false
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case primitive.DateTime:
		return x.Time(), true
	case string:
		t, err := time.Parse(time.RFC3339, x)
		return t, err == nil
	}
	return time.Time{}, false
}

func asInt64(v any) (int64, bool) {
	if n, ok := v.(json.Number); ok {
		i, err := n.Int64()
		return i, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// asObject returns v as a string-keyed map. bson.D is flattened; later
// duplicate keys win.
func asObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = e.Value
		}
		return m, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

// asArray returns the elements of a slice or array value.
func asArray(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case bson.D, []byte, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Normalize returns a copy of a JSON-decoded document in which integral
// numbers (float64 or json.Number) are int64, so int fields can be checked.
// Nested maps and slices are walked.
func Normalize(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return Normalize(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return int64(x)
		}
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	}
	return v
}
