// Package rest exposes the storefront view-models over HTTP.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/detail"
	serrors "github.com/abgdnv/storefront/internal/storefront/errors"
	"github.com/abgdnv/storefront/internal/storefront/manage"
	"github.com/abgdnv/storefront/internal/storefront/present"
	"github.com/abgdnv/storefront/internal/storefront/records"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
)

// About is the static store information.
type About struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Mission     string   `json:"mission,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
	Contact     string   `json:"contact,omitempty"`
}

type CatalogResponse struct {
	State        catalog.DisplayState  `json:"state"`
	Placeholders int                   `json:"placeholders"`
	Query        string                `json:"query"`
	Total        int                   `json:"total"`
	Items        []present.ProductView `json:"items"`
	Notice       *present.Notice       `json:"notice,omitempty"`
}

type DetailResponse struct {
	State   detail.Phase         `json:"state"`
	Product *present.ProductView `json:"product,omitempty"`
}

type Handler struct {
	catalog   *catalog.ViewModel
	client    records.Client
	newID     manage.IDGenerator
	presenter present.Presenter
	about     About
	logger    *slog.Logger
}

// NewHandler serves reads from the shared catalog and builds detail and
// management view-models per request.
func NewHandler(cat *catalog.ViewModel, client records.Client, newID manage.IDGenerator, presenter present.Presenter, about About, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:   cat,
		client:    client,
		newID:     newID,
		presenter: presenter,
		about:     about,
		logger:    logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the storefront routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/catalog", h.Catalog)
	r.Get("/api/v1/products/{id}", h.Product)
	r.Get("/api/v1/about", h.About)

	r.Route("/api/v1/manage/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}", h.Patch)
		r.Delete("/{id}", h.Delete)
	})
}

// Catalog evaluates the shared catalog against the q parameter.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	snap := h.catalog.View(r.URL.Query().Get("q"))
	web.RespondJSON(w, h.logger, http.StatusOK, CatalogResponse{
		State:        snap.State,
		Placeholders: present.Placeholders(snap.State),
		Query:        snap.Query,
		Total:        len(snap.Items),
		Items:        h.presenter.Products(snap.Visible),
		Notice:       present.NoticeFor(snap.State),
	})
}

// Product serves one product. A failed fetch is reported as not found.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathParam(w, r, h.logger, "id")
	if !ok {
		return
	}
	vm := detail.NewViewModel(h.client, h.logger)
	if err := vm.Fetch(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product", "id", id, "error", err)
	}
	if vm.Phase() != detail.PhaseFound {
		web.RespondJSON(w, h.logger, http.StatusNotFound, DetailResponse{State: vm.Phase()})
		return
	}
	view := h.presenter.ProductDetail(*vm.Product())
	web.RespondJSON(w, h.logger, http.StatusOK, DetailResponse{State: detail.PhaseFound, Product: &view})
}

func (h *Handler) About(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.about)
}

// Create submits the request body as a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var draft manage.Draft
	if !web.DecodeJSON(w, r, h.logger, &draft) {
		return
	}
	vm := h.manager()
	vm.SetDraft(draft)
	saved, err := vm.Submit(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created", "id", saved.ID)
	web.RespondJSON(w, h.logger, http.StatusCreated, h.presenter.Product(*saved))
}

// Update replaces every descriptive field of the stored product with the request body.
// Fields missing from the body are cleared.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(_, body manage.Draft) manage.Draft { return body })
}

// Patch overlays the non-empty fields of the request body on the stored product.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, manage.Draft.Overlay)
}

// edit loads the product, derives the new draft from the stored one and the body, and submits it.
func (h *Handler) edit(w http.ResponseWriter, r *http.Request, merge func(current, body manage.Draft) manage.Draft) {
	id, ok := web.PathParam(w, r, h.logger, "id")
	if !ok {
		return
	}
	var body manage.Draft
	if !web.DecodeJSON(w, r, h.logger, &body) {
		return
	}

	current := detail.NewViewModel(h.client, h.logger)
	if err := current.Fetch(r.Context(), id); err != nil {
		h.fail(w, r, err, fmt.Sprintf("Failed to retrieve product %s", id))
		return
	}
	if current.Phase() != detail.PhaseFound {
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}

	vm := h.manager()
	vm.BeginEdit(*current.Product())
	vm.SetDraft(merge(vm.Draft(), body))
	saved, err := vm.Submit(r.Context())
	if err != nil {
		h.fail(w, r, err, fmt.Sprintf("Failed to update product %s", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated", "id", id)
	web.RespondJSON(w, h.logger, http.StatusOK, h.presenter.Product(*saved))
}

// Delete removes a product. The caller confirms with confirm=true.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathParam(w, r, h.logger, "id")
	if !ok {
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		web.RespondError(w, h.logger, http.StatusPreconditionRequired, "Deletion must be confirmed with confirm=true")
		return
	}
	if err := h.manager().Remove(r.Context(), id); err != nil {
		h.fail(w, r, err, fmt.Sprintf("Failed to delete product %s", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) manager() *manage.ViewModel {
	return manage.NewViewModel(h.client, h.catalog, h.newID, h.logger)
}

// fail maps view-model errors to HTTP statuses, falling back to the gRPC status carried by the error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	var validationErr *serrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", validationErr.Fields)
		web.RespondValidationError(w, h.logger, validationErr.Fields)
	case errors.Is(err, serrors.ErrRecordNotFound):
		h.logger.WarnContext(r.Context(), "Product not found", "error", err)
		web.RespondError(w, h.logger, http.StatusNotFound, "Product not found")
	case errors.Is(err, serrors.ErrRecordExists):
		h.logger.WarnContext(r.Context(), "Product already exists", "error", err)
		web.RespondError(w, h.logger, http.StatusConflict, "Product already exists")
	default:
		code, msg := web.MapGrpcToHttpStatus(err)
		h.logger.ErrorContext(r.Context(), message, "status", code, "error", err)
		web.RespondError(w, h.logger, code, msg)
	}
}
