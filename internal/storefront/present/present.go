// Package present turns catalog state into what a shopper sees: product cards
// with an image and a price label, and the notice shown for empty catalogs.
package present

import (
	"strconv"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/product"
)

// Presenter renders products with the configured fallbacks.
type Presenter struct {
	FallbackImageURL string
	CurrencySymbol   string
}

// ProductView is one rendered product. Optional strings are left empty when absent.
type ProductView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	SKU          string     `json:"sku,omitempty"`
	Price        *float64   `json:"price,omitempty"`
	PriceLabel   string     `json:"priceLabel,omitempty"`
	ImageURL     string     `json:"imageUrl"`
	ExternalLink string     `json:"externalLink,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// Notice is the message shown in place of an empty product grid.
type Notice struct {
	Title string `json:"title"`
	Hint  string `json:"hint"`
}

func (p Presenter) Product(prod product.Product) ProductView {
	v := ProductView{
		ID:           prod.ID,
		Name:         prod.NameOrEmpty(),
		Description:  prod.DescriptionOrEmpty(),
		SKU:          deref(prod.SKU),
		Price:        prod.Price,
		PriceLabel:   p.PriceLabel(prod.Price),
		ImageURL:     deref(prod.MainImageURL),
		ExternalLink: deref(prod.ExternalLink),
		CreatedAt:    prod.CreatedAt,
		UpdatedAt:    prod.UpdatedAt,
	}
	if v.ImageURL == "" {
		v.ImageURL = p.FallbackImageURL
	}
	return v
}

// ProductDetail renders prod for the detail screen, where any present price,
// zero included, is labelled with two decimals.
func (p Presenter) ProductDetail(prod product.Product) ProductView {
	v := p.Product(prod)
	v.PriceLabel = p.DetailPriceLabel(prod.Price)
	return v
}

func (p Presenter) Products(prods []product.Product) []ProductView {
	out := make([]ProductView, len(prods))
	for i, prod := range prods {
		out[i] = p.Product(prod)
	}
	return out
}

// PriceLabel formats price with the currency symbol. A missing or zero price has no label.
func (p Presenter) PriceLabel(price *float64) string {
	if price == nil || *price == 0 {
		return ""
	}
	return p.CurrencySymbol + strconv.FormatFloat(*price, 'f', -1, 64)
}

// DetailPriceLabel formats price with two decimals. Only a missing price has no label.
func (p Presenter) DetailPriceLabel(price *float64) string {
	if price == nil {
		return ""
	}
	return p.CurrencySymbol + strconv.FormatFloat(*price, 'f', 2, 64)
}

// NoticeFor returns the notice for the empty states and nil otherwise.
func NoticeFor(state catalog.DisplayState) *Notice {
	switch state {
	case catalog.StateEmptyNoData:
		return &Notice{
			Title: "No products available",
			Hint:  "Start by adding some products to showcase your store",
		}
	case catalog.StateEmptyNoMatch:
		return &Notice{
			Title: "No products found",
			Hint:  "Try adjusting your search terms or browse all products",
		}
	default:
		return nil
	}
}

// Placeholders is the number of skeleton cards to draw for state.
func Placeholders(state catalog.DisplayState) int {
	if state == catalog.StateLoading {
		return catalog.PlaceholderCount
	}
	return 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
