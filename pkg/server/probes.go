package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Probes serves liveness and readiness endpoints.
// Readiness runs every registered check concurrently and fails if any of them fails.
type Probes struct {
	logger  *slog.Logger
	timeout time.Duration
	checks  map[string]Check
}

func NewProbes(logger *slog.Logger, timeout time.Duration) *Probes {
	return &Probes{logger: logger, timeout: timeout, checks: make(map[string]Check)}
}

// Add registers a named readiness check. Nil checks are ignored.
func (p *Probes) Add(name string, check Check) *Probes {
	if check != nil {
		p.checks[name] = check
	}
	return p
}

// Mount registers /healthz and /readyz on r.
func (p *Probes) Mount(r chi.Router) {
	r.Get("/healthz", p.Live)
	r.Get("/readyz", p.Ready)
}

func (p *Probes) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (p *Probes) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	for name, check := range p.checks {
		eg.Go(func() error {
			if err := check(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		p.logger.ErrorContext(r.Context(), "Readiness probe failed", "error", err)
		http.Error(w, "Service Unavailable: dependency is not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
