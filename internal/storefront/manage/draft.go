package manage

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/abgdnv/storefront/internal/storefront/product"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Draft is the product form. Only Name is checked; empty strings mean "absent".
type Draft struct {
	Name         string   `json:"name"                   validate:"notblank"`
	Price        *float64 `json:"price,omitempty"`
	Description  string   `json:"description,omitempty"`
	SKU          string   `json:"sku,omitempty"`
	MainImageURL string   `json:"mainImageUrl,omitempty"`
	ExternalLink string   `json:"externalLink,omitempty"`
}

// DraftFrom copies the descriptive fields of d into a form.
func DraftFrom(d product.Details) Draft {
	draft := Draft{
		Name:         deref(d.Name),
		Description:  deref(d.Description),
		SKU:          deref(d.SKU),
		MainImageURL: deref(d.MainImageURL),
		ExternalLink: deref(d.ExternalLink),
	}
	if d.Price != nil {
		p := *d.Price
		draft.Price = &p
	}
	return draft
}

// Details converts the form into product fields, dropping empty strings.
func (d Draft) Details() product.Details {
	details := product.Details{
		Name:         optional(d.Name),
		Description:  optional(d.Description),
		SKU:          optional(d.SKU),
		MainImageURL: optional(d.MainImageURL),
		ExternalLink: optional(d.ExternalLink),
	}
	if d.Price != nil {
		p := *d.Price
		details.Price = &p
	}
	return details
}

// Overlay copies the non-empty fields of patch over d.
func (d Draft) Overlay(patch Draft) Draft {
	if patch.Name != "" {
		d.Name = patch.Name
	}
	if patch.Price != nil {
		d.Price = patch.Price
	}
	if patch.Description != "" {
		d.Description = patch.Description
	}
	if patch.SKU != "" {
		d.SKU = patch.SKU
	}
	if patch.MainImageURL != "" {
		d.MainImageURL = patch.MainImageURL
	}
	if patch.ExternalLink != "" {
		d.ExternalLink = patch.ExternalLink
	}
	return d
}

// NewValidator returns a validator that knows the notblank rule and reports
// fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("failed to register notblank validation: %v", err))
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
