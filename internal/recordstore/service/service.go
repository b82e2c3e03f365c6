// Package service provides the record store business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rerrors "github.com/abgdnv/storefront/internal/recordstore/errors"
	"github.com/abgdnv/storefront/internal/recordstore/store"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/messaging/events"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// RecordService defines the operations on schemaless records.
type RecordService interface {
	// List returns every record of the collection in insertion order.
	// Returns an empty slice if the collection has no records.
	List(ctx context.Context, collection string) ([]RecordDto, error)

	// Get returns ErrRecordNotFound if no record exists with the given id.
	Get(ctx context.Context, collection, id string) (*RecordDto, error)

	// Create stores a new record. A missing id is generated.
	// Returns ErrRecordExists if the id is already taken.
	Create(ctx context.Context, collection string, rec RecordCreateDto) (*RecordDto, error)

	// Update replaces the fields of an existing record.
	// Returns ErrRecordNotFound if no record exists with the given id.
	Update(ctx context.Context, collection, id string, rec RecordUpdateDto) (*RecordDto, error)

	// Delete returns ErrRecordNotFound if no record exists with the given id.
	Delete(ctx context.Context, collection, id string) error
}

// RecordDto is the external representation of a stored record.
type RecordDto struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// RecordCreateDto is the payload for creating a record. ID is optional.
type RecordCreateDto struct {
	ID     string         `json:"id,omitempty" validate:"omitempty,notblank,max=128"`
	Fields map[string]any `json:"fields"       validate:"required"`
}

// RecordUpdateDto is the payload for replacing the fields of a record.
type RecordUpdateDto struct {
	Fields map[string]any `json:"fields" validate:"required"`
}

// Service implements RecordService on top of a RecordStore and announces writes through a Publisher.
type Service struct {
	store     store.RecordStore
	publisher messaging.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	written   metric.Int64Counter
	now       func() time.Time
}

func NewService(recordStore store.RecordStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("recordstore-service")
	written, err := meter.Int64Counter("records_written", metric.WithDescription("Total number of committed record writes"))
	if err != nil {
		panic(fmt.Sprintf("failed to create records_written counter: %v", err))
	}
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &Service{
		store:     recordStore,
		publisher: publisher,
		validate:  NewValidator(),
		logger:    logger.With("component", "service"),
		written:   written,
		now:       time.Now,
	}
}

func (s *Service) List(ctx context.Context, collection string) ([]RecordDto, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	recs, err := s.store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	out := make([]RecordDto, len(recs))
	for i := range recs {
		out[i] = *toDto(&recs[i])
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, collection, id string) (*RecordDto, error) {
	if err := s.checkKey(collection, id); err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s/%s: %w", collection, id, err)
	}
	return toDto(rec), nil
}

func (s *Service) Create(ctx context.Context, collection string, dto RecordCreateDto) (*RecordDto, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(dto); err != nil {
		return nil, fmt.Errorf("%w: %v", rerrors.ErrInvalidArgument, err)
	}
	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	rec, err := s.store.Insert(ctx, collection, id, dto.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}
	s.announce(ctx, collection, rec.ID, events.RecordCreated)
	return toDto(rec), nil
}

func (s *Service) Update(ctx context.Context, collection, id string, dto RecordUpdateDto) (*RecordDto, error) {
	if err := s.checkKey(collection, id); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(dto); err != nil {
		return nil, fmt.Errorf("%w: %v", rerrors.ErrInvalidArgument, err)
	}
	rec, err := s.store.Replace(ctx, collection, id, dto.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	s.announce(ctx, collection, id, events.RecordUpdated)
	return toDto(rec), nil
}

func (s *Service) Delete(ctx context.Context, collection, id string) error {
	if err := s.checkKey(collection, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	s.announce(ctx, collection, id, events.RecordDeleted)
	return nil
}

// announce publishes the change event and counts the write. A failed publish never fails the write.
func (s *Service) announce(ctx context.Context, collection, id string, op events.Operation) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.RecordChangedEvent{
		Carrier:    carrier,
		Collection: collection,
		RecordID:   id,
		Operation:  op,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish RecordChangedEvent",
			"collection", collection, "id", id, "operation", op, "error", err)
	}
	s.written.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collection", collection),
		attribute.String("operation", string(op)),
	))
}

func (s *Service) checkCollection(collection string) error {
	if err := s.validate.Var(collection, "collection"); err != nil {
		return fmt.Errorf("%w: invalid collection name %q", rerrors.ErrInvalidArgument, collection)
	}
	return nil
}

func (s *Service) checkKey(collection, id string) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}
	if err := s.validate.Var(id, "required,notblank,max=128"); err != nil {
		return fmt.Errorf("%w: invalid record id %q", rerrors.ErrInvalidArgument, id)
	}
	return nil
}

func toDto(rec *store.Record) *RecordDto {
	fields := rec.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return &RecordDto{
		ID:        rec.ID,
		Fields:    fields,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
