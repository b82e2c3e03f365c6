// Package subscriber reloads the catalog when the record store announces a change.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "storefront-subscriber"

// Reloader refreshes the cached catalog.
type Reloader interface {
	Load(ctx context.Context) error
}

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Term() error
}

// Start creates the durable consumer on stream and runs cfg.Workers fetch loops
// until ctx is cancelled.
func Start(ctx context.Context, js jetstream.JetStream, stream string, cfg config.SubscriberConfig, reloader Reloader, logger *slog.Logger) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, stream, jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s on %s: %w", cfg.Consumer, stream, err)
	}
	h := &handler{reloader: reloader, logger: logger.With("component", "subscriber"), tracer: otel.Tracer(tracerName)}

	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return h.run(gCtx, consumer, cfg.Timeout, cfg.Interval)
		})
	}
	return g.Wait()
}

type handler struct {
	reloader Reloader
	logger   *slog.Logger
	tracer   trace.Tracer
}

func (h *handler) run(ctx context.Context, consumer jetstream.Consumer, timeout, interval time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			h.logger.Error("failed to fetch messages", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
			continue
		}
		for msg := range batch.Messages() {
			h.handle(ctx, msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			h.logger.Warn("fetch ended with error", "error", err)
		}
	}
}

// handle reloads the catalog for one change event. Undecodable payloads are
// terminated so they are not redelivered. A failed reload is logged and the
// event acked; the next change triggers another reload.
func (h *handler) handle(ctx context.Context, msg ackableMsg) {
	if msg == nil {
		h.logger.Error("received nil message")
		return
	}
	event, err := events.ParseRecordChanged(msg.Data())
	if err != nil {
		h.logger.Error("failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			h.logger.Error("failed to terminate message", "error", err)
		}
		return
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, event.Carrier)
	ctx, span := h.tracer.Start(ctx, "catalog.reload", trace.WithAttributes(
		attribute.String("record.collection", event.Collection),
		attribute.String("record.id", event.RecordID),
		attribute.String("record.operation", string(event.Operation)),
	))
	defer span.End()

	h.logger.InfoContext(ctx, "received record change",
		slog.String("subject", msg.Subject()),
		slog.String("record_id", event.RecordID),
		slog.String("operation", string(event.Operation)),
		slog.String("occurred_at", event.OccurredAt.Format(time.RFC3339)))

	if err := h.reloader.Load(ctx); err != nil {
		span.RecordError(err)
		h.logger.WarnContext(ctx, "catalog reload failed", "error", err)
	}
	if err := msg.Ack(); err != nil {
		h.logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}
