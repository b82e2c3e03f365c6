package present

import (
	"testing"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestPresenter_Product(t *testing.T) {
	p := Presenter{FallbackImageURL: "https://img/fallback.png", CurrencySymbol: "₹"}

	testCases := []struct {
		name      string
		product   product.Product
		wantImage string
		wantLabel string
	}{
		{
			name:      "fallback image and no price",
			product:   product.Product{ID: "p1", Details: product.Details{Name: ptr("Lamp")}},
			wantImage: "https://img/fallback.png",
		},
		{
			name: "own image and integral price",
			product: product.Product{ID: "p2", Details: product.Details{
				Name: ptr("Mug"), MainImageURL: ptr("https://img/mug.png"), Price: ptr(499.0),
			}},
			wantImage: "https://img/mug.png",
			wantLabel: "₹499",
		},
		{
			name:      "fractional price",
			product:   product.Product{ID: "p3", Details: product.Details{Price: ptr(12.5)}},
			wantImage: "https://img/fallback.png",
			wantLabel: "₹12.5",
		},
		{
			name:      "zero price has no label",
			product:   product.Product{ID: "p4", Details: product.Details{Price: ptr(0.0)}},
			wantImage: "https://img/fallback.png",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			v := p.Product(tc.product)

			// then
			assert.Equal(t, tc.product.ID, v.ID)
			assert.Equal(t, tc.wantImage, v.ImageURL)
			assert.Equal(t, tc.wantLabel, v.PriceLabel)
		})
	}
}

func TestPresenter_ProductDetail(t *testing.T) {
	p := Presenter{FallbackImageURL: "https://img/fallback.png", CurrencySymbol: "₹"}

	testCases := []struct {
		name      string
		price     *float64
		wantLabel string
	}{
		{name: "no price", price: nil, wantLabel: ""},
		{name: "zero price is shown", price: ptr(0.0), wantLabel: "₹0.00"},
		{name: "one decimal is padded", price: ptr(9.9), wantLabel: "₹9.90"},
		{name: "integral price", price: ptr(499.0), wantLabel: "₹499.00"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			prod := product.Product{ID: "p1", Details: product.Details{Name: ptr("Lamp"), Price: tc.price}}

			// when
			v := p.ProductDetail(prod)

			// then
			assert.Equal(t, tc.wantLabel, v.PriceLabel)
			assert.Equal(t, "https://img/fallback.png", v.ImageURL)
			assert.Equal(t, "Lamp", v.Name)
		})
	}
}

func TestNoticeFor(t *testing.T) {
	require.NotNil(t, NoticeFor(catalog.StateEmptyNoData))
	assert.Equal(t, "No products available", NoticeFor(catalog.StateEmptyNoData).Title)
	assert.Equal(t, "No products found", NoticeFor(catalog.StateEmptyNoMatch).Title)
	assert.Nil(t, NoticeFor(catalog.StatePopulated))
	assert.Nil(t, NoticeFor(catalog.StateLoading))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, catalog.PlaceholderCount, Placeholders(catalog.StateLoading))
	assert.Zero(t, Placeholders(catalog.StatePopulated))
	assert.Zero(t, Placeholders(catalog.StateEmptyNoData))
}
