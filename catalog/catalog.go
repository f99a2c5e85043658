// Package catalog filters and sorts product listings on the client side.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bluescreen10/storefront/apiclient"
)

// Sort orders.
const (
	SortRelevance = "relevance"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortTitle     = "title"
)

// Query narrows a product listing. The zero value matches everything in
// input order.
type Query struct {
	// Category matches case-insensitively, either exactly or as a
	// substring. "", "All" and "Todos" match every category.
	Category string

	// Search matches the title or the description case-insensitively.
	Search string

	// MinPrice and MaxPrice bound the price, inclusive. A MaxPrice of zero
	// means no upper bound.
	MinPrice float64
	MaxPrice float64

	// Sort is one of the Sort constants. Unknown values keep input order.
	Sort string
}

func (q Query) allCategories() bool {
	switch strings.ToLower(strings.TrimSpace(q.Category)) {
	case "", "all", "todos":
		return true
	}
	return false
}

// Match reports whether p satisfies the filters of q.
func (q Query) Match(p apiclient.Product) bool {
	if !q.allCategories() {
		want := strings.ToLower(strings.TrimSpace(q.Category))
		if !strings.Contains(strings.ToLower(p.Category), want) {
			return false
		}
	}

	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		if !strings.Contains(strings.ToLower(p.Title), s) &&
			!strings.Contains(strings.ToLower(p.Description), s) {
			return false
		}
	}

	if p.Price < q.MinPrice {
		return false
	}
	if q.MaxPrice > 0 && p.Price > q.MaxPrice {
		return false
	}
	return true
}

// Filter returns the products matching q in the order q asks for. The
// input slice is not modified.
func Filter(products []apiclient.Product, q Query) []apiclient.Product {
	out := make([]apiclient.Product, 0, len(products))
	for _, p := range products {
		if q.Match(p) {
			out = append(out, p)
		}
	}

	switch q.Sort {
	case SortPriceLow:
		slices.SortStableFunc(out, func(a, b apiclient.Product) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceHigh:
		slices.SortStableFunc(out, func(a, b apiclient.Product) int { return cmp.Compare(b.Price, a.Price) })
	case SortTitle:
		slices.SortStableFunc(out, func(a, b apiclient.Product) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	}

	return out
}

// Categories returns the distinct categories of products in first-seen
// order.
func Categories(products []apiclient.Product) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range products {
		key := strings.ToLower(p.Category)
		if p.Category == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p.Category)
	}
	return out
}
