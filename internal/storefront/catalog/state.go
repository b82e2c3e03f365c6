package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abgdnv/storefront/internal/storefront/product"
)

// PlaceholderCount is the number of skeleton slots shown while loading.
const PlaceholderCount = 8

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "Ready"
	}
	return "Loading"
}

// DisplayState tells the presentation layer which catalog affordance to render.
type DisplayState int

const (
	// StateLoading shows PlaceholderCount skeleton slots.
	StateLoading DisplayState = iota
	// StateEmptyNoData shows "no products available" with a call to add the first product.
	StateEmptyNoData
	// StateEmptyNoMatch shows "no products found" without the add call.
	StateEmptyNoMatch
	// StatePopulated renders the product grid.
	StatePopulated
)

var displayStateNames = [...]string{"Loading", "EmptyNoData", "EmptyNoMatch", "Populated"}

func (s DisplayState) String() string {
	if s < 0 || int(s) >= len(displayStateNames) {
		return fmt.Sprintf("DisplayState(%d)", int(s))
	}
	return displayStateNames[s]
}

func (s DisplayState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *DisplayState) UnmarshalText(text []byte) error {
	for i, name := range displayStateNames {
		if name == string(text) {
			*s = DisplayState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown display state %q", text)
}

// Matches reports whether the lowercased query is a substring of the lowercased
// name or description. Absent fields compare as empty strings.
func Matches(p product.Product, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(p.NameOrEmpty()), q) ||
		strings.Contains(strings.ToLower(p.DescriptionOrEmpty()), q)
}

// Filter returns the items matching query in their original order.
// An empty query returns items unchanged.
func Filter(items []product.Product, query string) []product.Product {
	if query == "" {
		return slices.Clone(items)
	}
	out := make([]product.Product, 0, len(items))
	for _, p := range items {
		if Matches(p, query) {
			out = append(out, p)
		}
	}
	return out
}

// ResolveDisplayState derives the display state. A search over an empty catalog
// resolves to StateEmptyNoMatch: the add call is only offered when no query is set.
func ResolveDisplayState(phase Phase, items, visible []product.Product, query string) DisplayState {
	switch {
	case phase == PhaseLoading:
		return StateLoading
	case len(visible) > 0:
		return StatePopulated
	case len(items) == 0 && query == "":
		return StateEmptyNoData
	default:
		return StateEmptyNoMatch
	}
}
