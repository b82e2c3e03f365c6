// Package catalog holds the product catalog view-model: the loaded product set,
// the search query and the derived display state.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/abgdnv/storefront/internal/storefront/product"
	"github.com/abgdnv/storefront/internal/storefront/records"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Snapshot is a consistent view of the catalog at one instant.
type Snapshot struct {
	Phase   Phase
	Query   string
	Items   []product.Product
	Visible []product.Product
	State   DisplayState
}

// ViewModel is safe for concurrent use. Overlapping loads apply in completion
// order, so the last one to finish wins.
type ViewModel struct {
	client  records.Client
	logger  *slog.Logger
	reloads metric.Int64Counter

	mu    sync.RWMutex
	items []product.Product
	query string
	phase Phase
}

func NewViewModel(client records.Client, logger *slog.Logger) *ViewModel {
	reloads, err := otel.Meter("github.com/abgdnv/storefront/catalog").Int64Counter(
		"catalog_reloads",
		metric.WithDescription("Catalog loads by outcome"),
	)
	if err != nil {
		logger.Warn("catalog_reloads counter unavailable", "error", err)
	}
	return &ViewModel{
		client:  client,
		logger:  logger.With("component", "catalog"),
		reloads: reloads,
		phase:   PhaseLoading,
	}
}

// Load fetches every product. On failure the previous items are kept, the phase
// still becomes Ready and the error is returned for the caller to surface.
func (vm *ViewModel) Load(ctx context.Context) error {
	recs, err := vm.client.ListAll(ctx, product.Collection)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.phase = PhaseReady
	if err != nil {
		vm.count(ctx, "failure")
		vm.logger.WarnContext(ctx, "catalog load failed, keeping previous items", "error", err, "items", len(vm.items))
		return fmt.Errorf("load catalog: %w", err)
	}
	vm.items = product.FromRecords(recs)
	vm.count(ctx, "success")
	vm.logger.DebugContext(ctx, "catalog loaded", "items", len(vm.items))
	return nil
}

func (vm *ViewModel) count(ctx context.Context, outcome string) {
	if vm.reloads != nil {
		vm.reloads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

// SetQuery replaces the search text. It never fetches.
func (vm *ViewModel) SetQuery(query string) {
	vm.mu.Lock()
	vm.query = query
	vm.mu.Unlock()
}

func (vm *ViewModel) Query() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.query
}

func (vm *ViewModel) Phase() Phase {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.phase
}

// Items returns a copy of the loaded products in store order.
func (vm *ViewModel) Items() []product.Product {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return slices.Clone(vm.items)
}

func (vm *ViewModel) VisibleItems() []product.Product {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return Filter(vm.items, vm.query)
}

func (vm *ViewModel) DisplayState() DisplayState {
	return vm.Snapshot().State
}

// Snapshot evaluates the catalog against the current query.
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return snapshot(vm.phase, vm.items, vm.query)
}

// View evaluates the catalog against query without changing the stored one.
func (vm *ViewModel) View(query string) Snapshot {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return snapshot(vm.phase, vm.items, query)
}

func snapshot(phase Phase, items []product.Product, query string) Snapshot {
	visible := Filter(items, query)
	return Snapshot{
		Phase:   phase,
		Query:   query,
		Items:   slices.Clone(items),
		Visible: visible,
		State:   ResolveDisplayState(phase, items, visible, query),
	}
}
