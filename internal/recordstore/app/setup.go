// Package app wires the record store service together.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/abgdnv/storefront/internal/recordstore/config"
	"github.com/abgdnv/storefront/internal/recordstore/service"
	"github.com/abgdnv/storefront/internal/recordstore/store"
	grpcImpl "github.com/abgdnv/storefront/internal/recordstore/transport/grpc"
	"github.com/abgdnv/storefront/internal/recordstore/transport/rest"
	pb "github.com/abgdnv/storefront/pkg/api/recordstore/v1"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/server"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

const readinessTimeout = 2 * time.Second

type Dependencies struct {
	RecordService service.RecordService
	Logger        *slog.Logger
	// Checks are added to /readyz by name.
	Checks map[string]server.Check
	// Metrics serves the prometheus scrape endpoint when set.
	Metrics     http.Handler
	MetricsPath string
}

func SetupDependencies(recordStore store.RecordStore, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		RecordService: service.NewService(recordStore, publisher, logger),
		Logger:        logger,
		Checks: map[string]server.Check{
			"database": func(ctx context.Context) error { return recordStore.Ping(ctx) },
		},
	}
}

// SetupHttpHandler builds the router with every route of the service.
// Used by tests to exercise the full HTTP stack.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, "recordstore.http")
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
	rest.NewHandler(deps.RecordService, deps.Logger).RegisterRoutes(mux)
}

// SetupHttpServer creates the HTTP server of the record store.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer creates the gRPC server with the record store service registered.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool, healthServer *health.Server) *grpc.Server {
	recordStoreRegisterFunc := func(s *grpc.Server) {
		pb.RegisterRecordStoreServer(s, grpcImpl.NewServer(deps.RecordService, deps.Logger))
	}
	opts := server.GRPCOptions{
		Reflection:    reflectionEnabled,
		Health:        healthServer,
		ServerOptions: []grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())},
	}
	return server.NewGRPCServer(opts, recordStoreRegisterFunc)
}
