package model

import "time"

// Schema describes one resource collection: how it is named, which fields
// must be unique across the collection, and which defaults apply on create.
// T is the stored document, P its partial-update shape.
type Schema[T any, P any] struct {
	// Name is the singular display name used in responses ("Book").
	Name string
	// Collection is the collection or table name ("books").
	Collection string
	// Unique lists document fields (wire names) with a uniqueness constraint.
	Unique []string
	// Defaults fills unset optional fields before insert.
	Defaults func(doc *T, now time.Time)
}

// ApplyDefaults runs the schema defaults, if any.
func (s Schema[T, P]) ApplyDefaults(doc *T, now time.Time) {
	if s.Defaults != nil {
		s.Defaults(doc, now)
	}
}
