package schema

import (
	"fmt"
	"strings"
)

// BSONType is a declared field type in a collection schema.
type BSONType string

const (
	TypeObject   BSONType = "object"
	TypeObjectID BSONType = "objectId"
	TypeString   BSONType = "string"
	TypeDate     BSONType = "date"
	TypeBool     BSONType = "bool"
	TypeInt      BSONType = "int"
	TypeArray    BSONType = "array"
	TypeEnum     BSONType = "enum"
)

// Valid reports whether t is one of the supported declared types.
func (t BSONType) Valid() bool {
	switch t {
	case TypeObject, TypeObjectID, TypeString, TypeDate, TypeBool, TypeInt, TypeArray, TypeEnum:
		return true
	}
	return false
}

// scalar reports whether t can be used as an array item type.
func (t BSONType) scalar() bool {
	switch t {
	case TypeObjectID, TypeString, TypeDate, TypeBool, TypeInt:
		return true
	}
	return false
}

// Field declares one property of a collection or of a nested object.
type Field struct {
	Name    string   `yaml:"name"`
	Type    BSONType `yaml:"bsonType"`
	Aliases []string `yaml:"aliases,omitempty"`

	// Enum lists the allowed values of an enum field.
	Enum []string `yaml:"enum,omitempty"`

	// Items is the element type of an array field. Empty means any.
	Items BSONType `yaml:"items,omitempty"`

	// Required and Properties apply to object fields only.
	Required   []string `yaml:"required,omitempty"`
	Properties []Field  `yaml:"properties,omitempty"`

	allowed map[string]struct{}
}

// Allows reports whether value is a member of an enum field's value set.
func (f *Field) Allows(value string) bool {
	_, ok := f.allowed[value]
	return ok
}

// expected describes the declared type for violation messages.
func (f *Field) expected() string {
	if f.Type == TypeEnum {
		return fmt.Sprintf("enum(%s)", strings.Join(f.Enum, "|"))
	}
	return string(f.Type)
}

// Collection is the schema of one named document collection.
type Collection struct {
	Name       string   `yaml:"name"`
	Required   []string `yaml:"required"`
	Properties []Field  `yaml:"properties"`
}

// Field returns the top-level property declared under name.
func (c *Collection) Field(name string) (*Field, bool) {
	return findField(c.Properties, name)
}

func findField(props []Field, name string) (*Field, bool) {
	for i := range props {
		if props[i].Name == name {
			return &props[i], true
		}
	}
	return nil, false
}

// lookup returns the value stored under the field's name or one of its aliases.
func lookup(doc map[string]any, f *Field) (any, string, bool) {
	if v, ok := doc[f.Name]; ok {
		return v, f.Name, true
	}
	for _, alias := range f.Aliases {
		if v, ok := doc[alias]; ok {
			return v, alias, true
		}
	}
	return nil, "", false
}

// prepare checks a property list and builds enum lookup sets.
func prepare(path string, required []string, props []Field) error {
	seen := make(map[string]struct{}, len(props))
	for i := range props {
		f := &props[i]
		name := joinPath(path, f.Name)
		if f.Name == "" {
			return fmt.Errorf("%s: property without a name", path)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%s: duplicate property", name)
		}
		seen[f.Name] = struct{}{}

		if !f.Type.Valid() {
			return fmt.Errorf("%s: unknown bsonType %q", name, f.Type)
		}
		if f.Type == TypeEnum {
			if len(f.Enum) == 0 {
				return fmt.Errorf("%s: enum without values", name)
			}
			f.allowed = make(map[string]struct{}, len(f.Enum))
			for _, v := range f.Enum {
				f.allowed[v] = struct{}{}
			}
		} else if len(f.Enum) > 0 {
			return fmt.Errorf("%s: enum values on a %s field", name, f.Type)
		}
		if f.Items != "" {
			if f.Type != TypeArray {
				return fmt.Errorf("%s: items on a %s field", name, f.Type)
			}
			if !f.Items.scalar() {
				return fmt.Errorf("%s: unsupported items type %q", name, f.Items)
			}
		}
		if f.Type != TypeObject && (len(f.Properties) > 0 || len(f.Required) > 0) {
			return fmt.Errorf("%s: properties on a %s field", name, f.Type)
		}
		if f.Type == TypeObject {
			if err := prepare(name, f.Required, f.Properties); err != nil {
				return err
			}
		}
	}

	for _, r := range required {
		if _, ok := seen[r]; !ok {
			return fmt.Errorf("%s: required field %q is not declared", path, r)
		}
	}
	return nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
