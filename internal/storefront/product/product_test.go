package product

import (
	"testing"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFromRecord(t *testing.T) {
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	testCases := []struct {
		name string
		rec  records.Record
		want Product
	}{
		{
			name: "all fields present",
			rec: records.Record{ID: "p1", CreatedAt: &created, Fields: map[string]any{
				"name": "Lamp", "externalLink": "https://shop/lamp", "description": "Warm light",
				"price": 499.0, "mainImageUrl": "https://img/lamp.png", "sku": "LMP-1",
			}},
			want: Product{ID: "p1", CreatedAt: &created, Details: Details{
				Name: ptr("Lamp"), ExternalLink: ptr("https://shop/lamp"), Description: ptr("Warm light"),
				Price: ptr(499.0), MainImageURL: ptr("https://img/lamp.png"), SKU: ptr("LMP-1"),
			}},
		},
		{
			name: "no fields",
			rec:  records.Record{ID: "p2"},
			want: Product{ID: "p2"},
		},
		{
			name: "wrong types are absent",
			rec:  records.Record{ID: "p3", Fields: map[string]any{"name": 42.0, "price": "cheap", "sku": nil}},
			want: Product{ID: "p3"},
		},
		{
			name: "integer price",
			rec:  records.Record{ID: "p4", Fields: map[string]any{"price": 7}},
			want: Product{ID: "p4", Details: Details{Price: ptr(7.0)}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FromRecord(tc.rec))
		})
	}
}

func TestDetails_ToRecord(t *testing.T) {
	d := Details{Name: ptr("Widget"), Price: ptr(9.99)}

	rec := d.ToRecord("w1")

	assert.Equal(t, "w1", rec.ID)
	assert.Equal(t, map[string]any{"name": "Widget", "price": 9.99}, rec.Fields)

	back := FromRecord(rec)
	require.NotNil(t, back.Name)
	assert.Equal(t, d, back.Details)
}

func TestProduct_TextAccessors(t *testing.T) {
	p := Product{Details: Details{Name: ptr("Shoe")}}

	assert.Equal(t, "Shoe", p.NameOrEmpty())
	assert.Equal(t, "", p.DescriptionOrEmpty())
}
