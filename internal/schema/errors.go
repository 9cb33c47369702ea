package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCollection is returned when a collection name is not in the registry.
var ErrUnknownCollection = errors.New("unknown collection")

// ViolationKind classifies a single schema violation.
type ViolationKind string

const (
	// MissingField: a required field is absent.
	MissingField ViolationKind = "MissingField"
	// TypeMismatch: a present field does not match its declared type.
	TypeMismatch ViolationKind = "TypeMismatch"
)

// Violation describes one way a document fails its collection schema.
// Field is a dotted path for nested objects and uses [i] for array items.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Field    string        `json:"field"`
	Expected string        `json:"expected,omitempty"`
	Actual   string        `json:"actual,omitempty"`
}

func (v Violation) String() string {
	if v.Kind == MissingField {
		return fmt.Sprintf("%s(%s)", v.Kind, v.Field)
	}
	return fmt.Sprintf("%s(%s, expected %s, got %s)", v.Kind, v.Field, v.Expected, v.Actual)
}

// ValidationError carries every violation found in one validation pass.
type ValidationError struct {
	Collection string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %d schema violation(s): %s",
		e.Collection, len(e.Violations), strings.Join(parts, "; "))
}

// Violations extracts the violation list from err, or nil if err is not
// a *ValidationError.
func Violations(err error) []Violation {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}
