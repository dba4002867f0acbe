package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (mongodb, postgres, memory) inside this directory.

import (
	"context"
)

// Repository defines data access for one resource collection.
// T is the stored document type and P its partial-update shape.
// No business logic here, only persistence plus schema checks.
type Repository[T any, P any] interface {
	// Create validates doc, applies schema defaults, assigns a new identifier and stores it.
	// Any identifier already present on doc is discarded.
	Create(ctx context.Context, doc *T) (*T, error)

	// List returns every stored record in storage-defined order.
	// The result is empty, never nil, when the collection has no records.
	List(ctx context.Context) ([]T, error)

	// FindByID returns the record with the given identifier or ErrNotFound.
	FindByID(ctx context.Context, id string) (*T, error)

	// UpdateByID merges the non-nil fields of patch into the record and returns the result.
	UpdateByID(ctx context.Context, id string, patch *P) (*T, error)

	// DeleteByID removes the record. It returns ErrNotFound if nothing was removed.
	DeleteByID(ctx context.Context, id string) error
}
