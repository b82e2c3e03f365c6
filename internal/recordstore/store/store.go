// Package store persists schemaless records grouped in named collections.
package store

import (
	"context"
	"time"
)

// Record is one stored row. Fields is free-form JSON.
type Record struct {
	Collection string         `db:"collection"`
	ID         string         `db:"id"`
	Fields     map[string]any `db:"fields"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

// RecordStore abstracts the underlying data store.
type RecordStore interface {
	// List returns every record of the collection in insertion order.
	// Returns an empty slice if the collection has no records.
	List(ctx context.Context, collection string) ([]Record, error)

	// Get returns ErrRecordNotFound if no record exists with the given id.
	Get(ctx context.Context, collection, id string) (*Record, error)

	// Insert returns ErrRecordExists if the id is already taken in the collection.
	Insert(ctx context.Context, collection, id string, fields map[string]any) (*Record, error)

	// Replace overwrites all fields of an existing record.
	// Returns ErrRecordNotFound if no record exists with the given id.
	Replace(ctx context.Context, collection, id string, fields map[string]any) (*Record, error)

	// Delete returns ErrRecordNotFound if no record exists with the given id.
	Delete(ctx context.Context, collection, id string) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
