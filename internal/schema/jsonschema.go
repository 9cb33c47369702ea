package schema

import "go.mongodb.org/mongo-driver/bson"

// JSONSchema renders the collection as a MongoDB $jsonSchema document.
//
// MongoDB has no "enum" BSON type, so enum fields render as strings with an
// enum list. int fields accept both int and long, since drivers store Go
// int64 values as long.
func (c *Collection) JSONSchema() bson.D {
	return objectSchema(c.Name, c.Required, c.Properties)
}

// ValidatorDocument wraps JSONSchema for the createCollection and collMod
// validator option.
func (c *Collection) ValidatorDocument() bson.D {
	return bson.D{{Key: "$jsonSchema", Value: c.JSONSchema()}}
}

func objectSchema(title string, required []string, props []Field) bson.D {
	d := bson.D{
		{Key: "bsonType", Value: string(TypeObject)},
		{Key: "title", Value: title},
	}
	if len(required) > 0 {
		d = append(d, bson.E{Key: "required", Value: stringsToA(required)})
	}
	if len(props) > 0 {
		p := make(bson.D, 0, len(props))
		for i := range props {
			p = append(p, bson.E{Key: props[i].Name, Value: fieldSchema(&props[i])})
		}
		d = append(d, bson.E{Key: "properties", Value: p})
	}
	return d
}

func fieldSchema(f *Field) bson.D {
	switch f.Type {
	case TypeObject:
		return objectSchema(f.Name, f.Required, f.Properties)
	case TypeEnum:
		return bson.D{
			{Key: "bsonType", Value: string(TypeString)},
			{Key: "enum", Value: stringsToA(f.Enum)},
		}
	case TypeArray:
		d := bson.D{{Key: "bsonType", Value: string(TypeArray)}}
		if f.Items != "" {
			d = append(d, bson.E{Key: "items", Value: bson.D{{Key: "bsonType", Value: scalarBSONType(f.Items)}}})
		}
		return d
	}
	return bson.D{{Key: "bsonType", Value: scalarBSONType(f.Type)}}
}

func scalarBSONType(t BSONType) any {
	if t == TypeInt {
		return bson.A{"int", "long"}
	}
	return string(t)
}

func stringsToA(in []string) bson.A {
	out := make(bson.A, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
