package records

import (
	"context"
	"sync"
	"time"

	serrors "github.com/abgdnv/storefront/internal/storefront/errors"
	"github.com/google/uuid"
)

// MemoryClient is an in-process Client. Collections keep insertion order.
type MemoryClient struct {
	mu          sync.RWMutex
	collections map[string][]Record
	now         func() time.Time
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{collections: make(map[string][]Record), now: time.Now}
}

func (m *MemoryClient) ListAll(_ context.Context, collection string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.collections[collection]
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		out = append(out, copyRecord(r))
	}
	return out, nil
}

func (m *MemoryClient) GetByID(_ context.Context, collection, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(collection, id); i >= 0 {
		r := copyRecord(m.collections[collection][i])
		return &r, nil
	}
	return nil, nil
}

func (m *MemoryClient) Create(_ context.Context, collection string, rec Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if m.indexOf(collection, rec.ID) >= 0 {
		return nil, &serrors.StoreError{Op: "create", Collection: collection, ID: rec.ID, Err: serrors.ErrRecordExists}
	}
	now := m.now().UTC()
	stored := Record{ID: rec.ID, CreatedAt: &now, UpdatedAt: &now, Fields: cloneFields(rec.Fields)}
	m.collections[collection] = append(m.collections[collection], stored)
	out := copyRecord(stored)
	return &out, nil
}

func (m *MemoryClient) Update(_ context.Context, collection string, rec Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(collection, rec.ID)
	if i < 0 {
		return nil, &serrors.StoreError{Op: "update", Collection: collection, ID: rec.ID, Err: serrors.ErrRecordNotFound}
	}
	now := m.now().UTC()
	stored := m.collections[collection][i]
	stored.UpdatedAt = &now
	stored.Fields = cloneFields(rec.Fields)
	m.collections[collection][i] = stored
	out := copyRecord(stored)
	return &out, nil
}

func (m *MemoryClient) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(collection, id)
	if i < 0 {
		return &serrors.StoreError{Op: "delete", Collection: collection, ID: id, Err: serrors.ErrRecordNotFound}
	}
	recs := m.collections[collection]
	m.collections[collection] = append(recs[:i:i], recs[i+1:]...)
	return nil
}

// indexOf must be called with mu held.
func (m *MemoryClient) indexOf(collection, id string) int {
	for i, r := range m.collections[collection] {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func copyRecord(r Record) Record {
	r.Fields = cloneFields(r.Fields)
	return r
}
