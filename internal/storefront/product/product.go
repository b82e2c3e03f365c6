// Package product maps store records to catalog products.
package product

import (
	"time"

	"github.com/abgdnv/storefront/internal/storefront/records"
)

// Collection is the record store collection holding products.
const Collection = "products"

// Record field keys.
const (
	FieldName         = "name"
	FieldExternalLink = "externalLink"
	FieldDescription  = "description"
	FieldPrice        = "price"
	FieldMainImageURL = "mainImageUrl"
	FieldSKU          = "sku"
)

// Details holds the descriptive fields of a product. Every field is optional.
type Details struct {
	Name         *string  `json:"name,omitempty"`
	ExternalLink *string  `json:"externalLink,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	MainImageURL *string  `json:"mainImageUrl,omitempty"`
	SKU          *string  `json:"sku,omitempty"`
}

// Product is one catalog item.
type Product struct {
	ID        string     `json:"id"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Details
}

// NameOrEmpty returns the name, or "" when absent.
func (p Product) NameOrEmpty() string { return deref(p.Name) }

// DescriptionOrEmpty returns the description, or "" when absent.
func (p Product) DescriptionOrEmpty() string { return deref(p.Description) }

// FromRecord reads the known fields of rec. A field holding a value of the wrong
// type is treated as absent.
func FromRecord(rec records.Record) Product {
	return Product{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Details: Details{
			Name:         stringField(rec.Fields, FieldName),
			ExternalLink: stringField(rec.Fields, FieldExternalLink),
			Description:  stringField(rec.Fields, FieldDescription),
			Price:        numberField(rec.Fields, FieldPrice),
			MainImageURL: stringField(rec.Fields, FieldMainImageURL),
			SKU:          stringField(rec.Fields, FieldSKU),
		},
	}
}

// FromRecords maps recs in order.
func FromRecords(recs []records.Record) []Product {
	out := make([]Product, 0, len(recs))
	for _, r := range recs {
		out = append(out, FromRecord(r))
	}
	return out
}

// ToRecord writes the present descriptive fields of d under id. Absent fields are omitted,
// so an update replaces the full field set.
func (d Details) ToRecord(id string) records.Record {
	fields := make(map[string]any)
	putString(fields, FieldName, d.Name)
	putString(fields, FieldExternalLink, d.ExternalLink)
	putString(fields, FieldDescription, d.Description)
	if d.Price != nil {
		fields[FieldPrice] = *d.Price
	}
	putString(fields, FieldMainImageURL, d.MainImageURL)
	putString(fields, FieldSKU, d.SKU)
	return records.Record{ID: id, Fields: fields}
}

func putString(fields map[string]any, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}

func stringField(fields map[string]any, key string) *string {
	if s, ok := fields[key].(string); ok {
		return &s
	}
	return nil
}

func numberField(fields map[string]any, key string) *float64 {
	var f float64
	switch v := fields[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return nil
	}
	return &f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
