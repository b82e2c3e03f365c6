// Package records provides clients for the record store: generic create/read/update/delete
// access to named collections of schemaless records.
package records

import (
	"context"
	"time"
)

// Record is one stored record. Timestamps are store-managed and may be absent.
type Record struct {
	ID        string
	CreatedAt *time.Time
	UpdatedAt *time.Time
	Fields    map[string]any
}

// Client is the record store contract consumed by the view-models.
// Every failure is reported as a *errors.StoreError.
type Client interface {
	// ListAll returns every record of the collection in insertion order.
	ListAll(ctx context.Context, collection string) ([]Record, error)
	// GetByID returns nil and no error when the record does not exist.
	GetByID(ctx context.Context, collection, id string) (*Record, error)
	// Create stores rec. An empty rec.ID lets the store assign one.
	Create(ctx context.Context, collection string, rec Record) (*Record, error)
	// Update replaces the fields of the existing record rec.ID.
	Update(ctx context.Context, collection string, rec Record) (*Record, error)
	Delete(ctx context.Context, collection, id string) error
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
