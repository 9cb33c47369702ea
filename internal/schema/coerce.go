package schema

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coerce returns a storage-ready copy of doc for the named collection:
// alias keys are renamed to their canonical field names, objectId hex
// strings become primitive.ObjectID, RFC 3339 strings become UTC time.Time
// and integers become int64. Values that do not match their declared type
// are left untouched, so callers should validate first.
func (r *Registry) Coerce(collection string, doc map[string]any) (map[string]any, error) {
	c, err := r.lookup(collection)
	if err != nil {
		return nil, err
	}
	return coerceObject(c.Properties, doc), nil
}

func coerceObject(props []Field, doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	for i := range props {
		f := &props[i]
		val, key, ok := lookup(out, f)
		if !ok {
			continue
		}
		if key != f.Name {
			delete(out, key)
		}
		out[f.Name] = coerceValue(f, val)
	}
	return out
}

func coerceValue(f *Field, val any) any {
	if d := deref(val); d != nil {
		val = d
	}
	switch f.Type {
	case TypeObject:
		if m, ok := asObject(val); ok {
			return coerceObject(f.Properties, m)
		}
	case TypeArray:
		items, ok := asArray(val)
		if !ok {
			return val
		}
		out := make(primitive.A, len(items))
		for i, item := range items {
			out[i] = coerceScalar(f.Items, item)
		}
		return out
	case TypeEnum:
		if s, ok := asString(val); ok {
			return s
		}
	default:
		return coerceScalar(f.Type, val)
	}
	return val
}

func coerceScalar(t BSONType, val any) any {
	if d := deref(val); d != nil {
		val = d
	}
	switch t {
	case TypeObjectID:
		if id, ok := asObjectID(val); ok {
			return id
		}
	case TypeDate:
		if ts, ok := asTime(val); ok {
			return ts.UTC()
		}
	case TypeInt:
		if n, ok := asInt64(val); ok {
			return n
		}
	case TypeString:
		if s, ok := asString(val); ok {
			return s
		}
	}
	return val
}
