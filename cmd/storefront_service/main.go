// Package main runs the storefront service: the product catalog, detail and management views over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/storefront/internal/storefront/app"
	"github.com/abgdnv/storefront/internal/storefront/config"
	"github.com/abgdnv/storefront/internal/storefront/subscriber"
	"github.com/abgdnv/storefront/pkg/bootstrap"
	"github.com/abgdnv/storefront/pkg/config/configloader"
	"github.com/abgdnv/storefront/pkg/messaging"
	pnats "github.com/abgdnv/storefront/pkg/nats"
	"github.com/abgdnv/storefront/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "storefront"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, connects to the record store, and serves HTTP until ctx is done.
// With NATS enabled, record change events reload the catalog.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	shutdownTelemetry := func(context.Context) error { return nil }
	if cfg.Telemetry.Traces.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			logger.Error("error creating tracer provider", slog.Any("error", err))
			return err
		}
		shutdownTelemetry = tracerProvider.Shutdown
	}
	meterProvider, metricsHandler, err := telemetry.NewMeterProvider(serviceName)
	if err != nil {
		return fmt.Errorf("failed to create meter provider: %w", err)
	}

	client, closeClient, err := app.NewRecordsClient(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to create record store client: %w", err)
	}
	defer func() {
		if err := closeClient(); err != nil {
			logger.Error("failed to close record store client", "error", err)
		}
	}()
	logger.Info("Record store client ready", slog.String("backend", cfg.Store.Backend))

	deps := app.SetupDependencies(client, cfg, logger)
	if cfg.Telemetry.Metrics.Enabled {
		deps.Metrics = metricsHandler
		deps.MetricsPath = cfg.Telemetry.Metrics.Path
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.NATS.Enabled {
		nc, err := pnats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout, serviceName)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()
		js, err := pnats.NewJetStreamContext(nc)
		if err != nil {
			return err
		}
		if _, err := pnats.EnsureStream(ctx, js, cfg.NATS.Stream, messaging.AllRecordsSubject); err != nil {
			return err
		}
		deps.Checks["nats"] = pnats.Check(nc)
		g.Go(func() error {
			logger.Info("NATS subscriber started", slog.String("subject", cfg.Subscriber.Subject))
			return subscriber.Start(gCtx, js, cfg.NATS.Stream, cfg.Subscriber, deps.Catalog, logger)
		})
	}

	// Initial catalog load. A failure leaves an empty catalog that the next
	// change event or mutation refreshes.
	g.Go(func() error {
		if err := deps.Catalog.Load(gCtx); err != nil {
			logger.Error("initial catalog load failed", "error", err)
			return nil
		}
		logger.Info("Catalog loaded", slog.Int("items", len(deps.Catalog.Items())))
		return nil
	})

	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	// flush telemetry on shutdown
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down telemetry providers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return errors.Join(shutdownTelemetry(shutdownCtx), meterProvider.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
