// Package rest exposes the record store over HTTP.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	rerrors "github.com/abgdnv/storefront/internal/recordstore/errors"
	"github.com/abgdnv/storefront/internal/recordstore/service"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.RecordService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(svc service.RecordService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  svc,
		validate: service.NewValidator(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the record routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/collections/{collection}/records", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.collection(w, r)
	if !ok {
		return
	}
	list, err := h.service.List(r.Context(), collection)
	if err != nil {
		h.fail(w, r, err, "Failed to list records")
		return
	}
	h.logger.DebugContext(r.Context(), "Listed records", "collection", collection, "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := h.key(w, r)
	if !ok {
		return
	}
	found, err := h.service.Get(r.Context(), collection, id)
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf("Failed to retrieve record %s", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.collection(w, r)
	if !ok {
		return
	}
	var dto service.RecordCreateDto
	if !web.DecodeJSON(w, r, h.logger, &dto) || !h.valid(w, r, dto) {
		return
	}
	created, err := h.service.Create(r.Context(), collection, dto)
	if err != nil {
		h.fail(w, r, err, "Failed to create record")
		return
	}
	h.logger.InfoContext(r.Context(), "Record created", "collection", collection, "id", created.ID)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := h.key(w, r)
	if !ok {
		return
	}
	var dto service.RecordUpdateDto
	if !web.DecodeJSON(w, r, h.logger, &dto) || !h.valid(w, r, dto) {
		return
	}
	updated, err := h.service.Update(r.Context(), collection, id, dto)
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf("Failed to update record %s", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Record updated", "collection", collection, "id", id)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := h.key(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), collection, id); err != nil {
		h.fail(w, r, err, fmt.Sprintf("Failed to delete record %s", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Record deleted", "collection", collection, "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (string, bool) {
	collection, ok := web.PathParam(w, r, h.logger, "collection")
	if !ok {
		return "", false
	}
	if err := h.validate.Var(collection, "collection"); err != nil {
		web.RespondValidationError(w, h.logger, map[string]string{"collection": "failed on rule: collection"})
		return "", false
	}
	return collection, true
}

func (h *Handler) key(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	collection, ok := h.collection(w, r)
	if !ok {
		return "", "", false
	}
	id, ok := web.PathParam(w, r, h.logger, "id")
	if !ok {
		return "", "", false
	}
	return collection, id, true
}

// valid writes a 400 with per-field rules when dto fails validation.
func (h *Handler) valid(w http.ResponseWriter, r *http.Request, dto any) bool {
	err := h.validate.Struct(dto)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorResponse := make(map[string]string)
		for _, fieldErr := range validationErrors {
			errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
		web.RespondValidationError(w, h.logger, errorResponse)
		return false
	}
	h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
	web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
	return false
}

// fail maps service errors to HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, rerrors.ErrRecordNotFound):
		h.logger.WarnContext(r.Context(), "Record not found", "error", err)
		web.RespondError(w, h.logger, http.StatusNotFound, "Record not found")
	case errors.Is(err, rerrors.ErrRecordExists):
		h.logger.WarnContext(r.Context(), "Record already exists", "error", err)
		web.RespondError(w, h.logger, http.StatusConflict, "Record already exists")
	case errors.Is(err, rerrors.ErrInvalidArgument):
		h.logger.WarnContext(r.Context(), "Invalid argument", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), message, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, message)
	}
}
