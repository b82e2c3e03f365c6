// Package app wires the storefront service together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/config"
	"github.com/abgdnv/storefront/internal/storefront/manage"
	"github.com/abgdnv/storefront/internal/storefront/present"
	"github.com/abgdnv/storefront/internal/storefront/records"
	"github.com/abgdnv/storefront/internal/storefront/transport/rest"
	pb "github.com/abgdnv/storefront/pkg/api/recordstore/v1"
	"github.com/abgdnv/storefront/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const readinessTimeout = 2 * time.Second

// ErrCatalogLoading is reported by the readiness check until the first catalog load completes.
var ErrCatalogLoading = errors.New("catalog is still loading")

type Dependencies struct {
	Catalog   *catalog.ViewModel
	Client    records.Client
	NewID     manage.IDGenerator
	Presenter present.Presenter
	About     rest.About
	Logger    *slog.Logger
	// Checks are added to /readyz by name.
	Checks map[string]server.Check
	// Metrics serves the prometheus scrape endpoint when set.
	Metrics     http.Handler
	MetricsPath string
}

// NewRecordsClient returns the configured record store client and a close function.
func NewRecordsClient(cfg config.StoreConfig) (records.Client, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return records.NewMemoryClient(), func() error { return nil }, nil
	case config.BackendGRPC:
		conn, err := records.Dial(cfg.Grpc, cfg.Resilience)
		if err != nil {
			return nil, nil, err
		}
		return records.NewGRPCClient(pb.NewRecordStoreClient(conn)), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func SetupDependencies(client records.Client, cfg *config.Config, logger *slog.Logger) *Dependencies {
	cat := catalog.NewViewModel(client, logger)
	return &Dependencies{
		Catalog: cat,
		Client:  client,
		NewID:   uuid.NewString,
		Presenter: present.Presenter{
			FallbackImageURL: cfg.Display.FallbackImageURL,
			CurrencySymbol:   cfg.Display.CurrencySymbol,
		},
		About: rest.About{
			Name:        cfg.About.Name,
			Description: cfg.About.Description,
			Mission:     cfg.About.Mission,
			Highlights:  cfg.About.Highlights,
			Contact:     cfg.About.Contact,
		},
		Logger: logger,
		Checks: map[string]server.Check{
			"catalog": CatalogLoaded(cat),
		},
	}
}

// CatalogLoaded passes once the catalog has left the loading phase.
func CatalogLoaded(cat *catalog.ViewModel) server.Check {
	return func(context.Context) error {
		if cat.Phase() == catalog.PhaseLoading {
			return ErrCatalogLoading
		}
		return nil
	}
}

// SetupHttpHandler builds the router with every route of the service.
// Used by tests to exercise the full HTTP stack.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, "storefront.http")
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	probes := server.NewProbes(deps.Logger, readinessTimeout)
	for name, check := range deps.Checks {
		probes.Add(name, check)
	}
	probes.Mount(mux)
	if deps.Metrics != nil {
		mux.Handle(deps.MetricsPath, deps.Metrics)
	}
	rest.NewHandler(deps.Catalog, deps.Client, deps.NewID, deps.Presenter, deps.About, deps.Logger).RegisterRoutes(mux)
}

// SetupHttpServer creates the HTTP server of the storefront.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}
