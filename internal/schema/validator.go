// Package schema holds the collection schemas of the social data model and
// the validator that checks documents against them before they are written.
package schema

import "fmt"

// Validator checks documents against a Registry. It keeps no mutable
// state and is safe for concurrent use.
type Validator struct {
	registry *Registry
}

// New returns a Validator over r.
func New(r *Registry) *Validator {
	return &Validator{registry: r}
}

// Registry returns the schema table the validator checks against.
func (v *Validator) Registry() *Registry {
	return v.registry
}

// Validate checks doc against the named collection's schema. It returns nil
// when the document conforms, an error wrapping ErrUnknownCollection when
// the name is not registered, and otherwise a *ValidationError listing every
// violation found.
func (v *Validator) Validate(collection string, doc map[string]any) error {
	c, err := v.registry.lookup(collection)
	if err != nil {
		return err
	}

	var out []Violation
	checkObject("", c.Required, c.Properties, doc, &out)
	if len(out) == 0 {
		return nil
	}
	return &ValidationError{Collection: c.Name, Violations: out}
}

// checkObject reports missing required fields first, then type mismatches
// in declaration order.
func checkObject(prefix string, required []string, props []Field, doc map[string]any, out *[]Violation) {
	for _, name := range required {
		f, _ := findField(props, name)
		if _, _, ok := lookup(doc, f); !ok {
			*out = append(*out, Violation{Kind: MissingField, Field: joinPath(prefix, name)})
		}
	}

	for i := range props {
		f := &props[i]
		val, _, ok := lookup(doc, f)
		if !ok {
			continue
		}
		checkValue(joinPath(prefix, f.Name), f, val, out)
	}
}

func checkValue(path string, f *Field, val any, out *[]Violation) {
	val = deref(val)
	mismatch := func(p, expected, actual string) {
		*out = append(*out, Violation{Kind: TypeMismatch, Field: p, Expected: expected, Actual: actual})
	}

	switch f.Type {
	case TypeObject:
		m, ok := asObject(val)
		if !ok {
			mismatch(path, string(TypeObject), typeName(val))
			return
		}
		checkObject(path, f.Required, f.Properties, m, out)

	case TypeArray:
		items, ok := asArray(val)
		if !ok {
			mismatch(path, string(TypeArray), typeName(val))
			return
		}
		if f.Items == "" {
			return
		}
		for i, item := range items {
			if !matchesScalar(f.Items, item) {
				mismatch(fmt.Sprintf("%s[%d]", path, i), string(f.Items), typeName(item))
			}
		}

	case TypeEnum:
		s, ok := asString(val)
		if !ok {
			mismatch(path, f.expected(), typeName(val))
			return
		}
		if !f.Allows(s) {
			mismatch(path, f.expected(), fmt.Sprintf("%q", s))
		}

	default:
		if !matchesScalar(f.Type, val) {
			mismatch(path, f.expected(), typeName(val))
		}
	}
}
