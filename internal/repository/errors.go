package repository

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound reports that an identifier does not resolve to a record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalid reports a missing or malformed field.
	ErrInvalid = errors.New("validation failed")
	// ErrDuplicate reports a uniqueness constraint violation.
	ErrDuplicate = errors.New("duplicate key")
)

// FieldError names a single field that failed a schema rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError is returned for client-caused data failures.
// It unwraps to ErrInvalid or ErrDuplicate.
type ValidationError struct {
	Cause  error
	Detail string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Cause.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(f.Field + " " + f.Rule)
		if i == len(e.Fields)-1 {
			b.WriteString(")")
		}
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// Invalid builds a ValidationError wrapping ErrInvalid.
func Invalid(detail string, fields ...FieldError) error {
	return &ValidationError{Cause: ErrInvalid, Detail: detail, Fields: fields}
}

// Duplicate builds a ValidationError wrapping ErrDuplicate for the given unique fields.
func Duplicate(fields ...string) error {
	fe := make([]FieldError, 0, len(fields))
	for _, f := range fields {
		fe = append(fe, FieldError{Field: f, Rule: "unique"})
	}
	return &ValidationError{Cause: ErrDuplicate, Detail: "value already exists", Fields: fe}
}
