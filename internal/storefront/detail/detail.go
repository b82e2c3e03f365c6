// Package detail holds the single-product view-model.
package detail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/abgdnv/storefront/internal/storefront/product"
	"github.com/abgdnv/storefront/internal/storefront/records"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseFound
	PhaseNotFound
)

func (p Phase) String() string {
	switch p {
	case PhaseFound:
		return "Found"
	case PhaseNotFound:
		return "NotFound"
	default:
		return "Loading"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// ViewModel fetches one product. A missing record and a failed fetch both end
// in PhaseNotFound; the failure is also returned so the caller can log it.
// Results that arrive after the caller stopped observing are simply stored.
type ViewModel struct {
	client records.Client
	logger *slog.Logger

	mu      sync.RWMutex
	phase   Phase
	product *product.Product
}

func NewViewModel(client records.Client, logger *slog.Logger) *ViewModel {
	return &ViewModel{client: client, logger: logger.With("component", "detail")}
}

// Fetch loads id. An empty id resolves to PhaseNotFound without a store call.
func (vm *ViewModel) Fetch(ctx context.Context, id string) error {
	vm.set(PhaseLoading, nil)
	if id == "" {
		vm.set(PhaseNotFound, nil)
		return nil
	}

	rec, err := vm.client.GetByID(ctx, product.Collection, id)
	switch {
	case err != nil:
		vm.logger.WarnContext(ctx, "product fetch failed", "id", id, "error", err)
		vm.set(PhaseNotFound, nil)
		return err
	case rec == nil:
		vm.set(PhaseNotFound, nil)
		return nil
	default:
		p := product.FromRecord(*rec)
		vm.set(PhaseFound, &p)
		return nil
	}
}

func (vm *ViewModel) Phase() Phase {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.phase
}

// Product is non-nil only in PhaseFound.
func (vm *ViewModel) Product() *product.Product {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.product
}

func (vm *ViewModel) set(phase Phase, p *product.Product) {
	vm.mu.Lock()
	vm.phase = phase
	vm.product = p
	vm.mu.Unlock()
}
