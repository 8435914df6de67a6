package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey enumerates the supported catalog orderings.
type SortKey string

const (
	// SortName orders products lexicographically by name, locale-aware.
	// This is the default when no sort key is given.
	SortName SortKey = "name"
	// SortPriceAsc orders products by base price, cheapest first.
	SortPriceAsc SortKey = "price-asc"
	// SortPriceDesc orders products by base price, most expensive first.
	SortPriceDesc SortKey = "price-desc"
	// SortRatingDesc orders products by average rating, best first.
	SortRatingDesc SortKey = "rating-desc"
)

// PriceRange is an inclusive [Min, Max] interval over base prices.
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Filter describes one run of the catalog pipeline. The zero value matches
// everything and sorts by name.
type Filter struct {
	// CategoryID retains only products of this category when non-empty.
	CategoryID string
	// PriceRange retains only products whose base price falls within the
	// interval. Filtering is pinned to the base price, independent of any
	// discount.
	PriceRange *PriceRange
	// MinRating retains only products with Rating >= MinRating when > 0.
	MinRating float64
	// Search retains only products whose name contains the term,
	// case-insensitively, when non-empty.
	Search string
	// Sort selects the output ordering. Empty means SortName.
	Sort SortKey
}

// Apply runs the filter/sort pipeline over products and returns a new ordered
// slice. The input is never mutated, so repeated runs over identical inputs
// produce identical output. An empty result is a valid outcome, not an error.
func Apply(products []Product, f Filter) []Product {
	out := make([]Product, 0, len(products))

	lo, hi := f.priceBounds()
	term := strings.ToLower(f.Search)

	for _, p := range products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.PriceRange != nil && (p.Price.LessThan(lo) || p.Price.GreaterThan(hi)) {
			continue
		}
		if f.MinRating > 0 && p.Rating < f.MinRating {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, f.Sort)
	return out
}

// priceBounds returns the effective [lo, hi] interval. A range with Min > Max
// is clamped rather than rejected: independent slider updates can briefly
// produce an inverted range mid-drag.
func (f Filter) priceBounds() (lo, hi decimal.Decimal) {
	if f.PriceRange == nil {
		return decimal.Zero, decimal.Zero
	}
	lo, hi = f.PriceRange.Min, f.PriceRange.Max
	if lo.GreaterThan(hi) {
		lo = hi
	}
	return lo, hi
}

// sortProducts stably orders products in place by the given key. Stability
// keeps the relative input order of equal-key products, which makes the
// pipeline deterministic.
func sortProducts(products []Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b Product) int {
			return b.Price.Cmp(a.Price)
		})
	case SortRatingDesc:
		slices.SortStableFunc(products, func(a, b Product) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			default:
				return 0
			}
		})
	default:
		// SortName, empty, and unknown keys all order by name.
		// Collators are not safe for concurrent use, so build one per call.
		c := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(products, func(a, b Product) int {
			return c.CompareString(a.Name, b.Name)
		})
	}
}
