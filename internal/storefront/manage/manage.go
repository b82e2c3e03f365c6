// Package manage holds the product management view-model: one draft form,
// an optional record being edited, and the create/update/delete actions.
package manage

import (
	"context"
	"errors"
	"log/slog"

	serrors "github.com/abgdnv/storefront/internal/storefront/errors"
	"github.com/abgdnv/storefront/internal/storefront/product"
	"github.com/abgdnv/storefront/internal/storefront/records"
	"github.com/go-playground/validator/v10"
)

// IDGenerator supplies identifiers for new records.
type IDGenerator func() string

// Reloader is signalled after every successful mutation.
type Reloader interface {
	Load(ctx context.Context) error
}

// ViewModel is owned by a single caller and is not safe for concurrent use.
type ViewModel struct {
	client   records.Client
	reloader Reloader
	newID    IDGenerator
	validate *validator.Validate
	logger   *slog.Logger

	draft     Draft
	editingID string
}

func NewViewModel(client records.Client, reloader Reloader, newID IDGenerator, logger *slog.Logger) *ViewModel {
	return &ViewModel{
		client:   client,
		reloader: reloader,
		newID:    newID,
		validate: NewValidator(),
		logger:   logger.With("component", "manage"),
	}
}

func (vm *ViewModel) Draft() Draft { return vm.draft }

func (vm *ViewModel) SetDraft(d Draft) { vm.draft = d }

// EditingID reports the record being edited, if any.
func (vm *ViewModel) EditingID() (string, bool) {
	return vm.editingID, vm.editingID != ""
}

// BeginEdit loads p into the draft without contacting the store.
func (vm *ViewModel) BeginEdit(p product.Product) {
	vm.draft = DraftFrom(p.Details)
	vm.editingID = p.ID
}

// Cancel clears the draft and the editing reference.
func (vm *ViewModel) Cancel() {
	vm.draft = Draft{}
	vm.editingID = ""
}

// Submit validates the draft and creates or updates the record. On success the
// form is reset and the catalog reloaded; a reload failure is logged only.
// On failure the draft and editing reference are kept for a retry.
func (vm *ViewModel) Submit(ctx context.Context) (*product.Product, error) {
	if err := vm.check(); err != nil {
		return nil, err
	}

	var (
		saved *records.Record
		err   error
	)
	if id, editing := vm.EditingID(); editing {
		saved, err = vm.client.Update(ctx, product.Collection, vm.draft.Details().ToRecord(id))
	} else {
		saved, err = vm.client.Create(ctx, product.Collection, vm.draft.Details().ToRecord(vm.newID()))
	}
	if err != nil {
		vm.logger.WarnContext(ctx, "submit failed", "editing", vm.editingID, "error", err)
		return nil, err
	}

	p := product.FromRecord(*saved)
	vm.logger.InfoContext(ctx, "product saved", "id", p.ID, "updated", vm.editingID != "")
	vm.Cancel()
	vm.reload(ctx)
	return &p, nil
}

// Remove deletes the record id and reloads the catalog. Confirmation must
// happen before this call.
func (vm *ViewModel) Remove(ctx context.Context, id string) error {
	if id == "" {
		return &serrors.ValidationError{Fields: map[string]string{"id": "failed on rule: required"}}
	}
	if err := vm.client.Delete(ctx, product.Collection, id); err != nil {
		vm.logger.WarnContext(ctx, "remove failed", "id", id, "error", err)
		return err
	}
	vm.logger.InfoContext(ctx, "product removed", "id", id)
	vm.reload(ctx)
	return nil
}

func (vm *ViewModel) check() error {
	err := vm.validate.Struct(vm.draft)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
	}
	return &serrors.ValidationError{Fields: fields}
}

func (vm *ViewModel) reload(ctx context.Context) {
	if vm.reloader == nil {
		return
	}
	if err := vm.reloader.Load(ctx); err != nil {
		vm.logger.WarnContext(ctx, "catalog reload after mutation failed", "error", err)
	}
}
