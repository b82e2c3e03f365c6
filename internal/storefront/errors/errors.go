// Package errors provides the error taxonomy of the storefront view-models.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRecordNotFound is wrapped by StoreError when a mutation targets a missing record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrRecordExists is wrapped by StoreError when a create reuses an id.
	ErrRecordExists = errors.New("record already exists")
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// StoreError is any failure reported by a record store client.
type StoreError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError is a local check that failed before any store call.
// Fields maps a field name to the rule it broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
