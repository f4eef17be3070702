package catalog

import (
	"net/url"
	"sort"
	"strings"

	"bagsberry/internal/domain/category"
	"bagsberry/internal/domain/product"
)

// Price sort orders for the browsing page.
const (
	SortRelevant  = "relevant"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

// ValidSorts contains all valid price sort values.
var ValidSorts = []string{SortRelevant, SortPriceLow, SortPriceHigh}

// FilterState carries the three independent browsing criteria. It is
// ephemeral request state, never persisted.
type FilterState struct {
	SearchTerm string // case-insensitive substring match on name/description
	CategoryID string // category ID or the "all" sentinel
	PriceSort  string // relevant, price-low, price-high
}

// DefaultFilterState returns the unfiltered browsing state.
func DefaultFilterState() FilterState {
	return FilterState{CategoryID: category.All, PriceSort: SortRelevant}
}

// ParseFilterState extracts the filter state from URL query values.
// Unknown sort values fall back to relevant; an empty category falls back
// to the "all" sentinel.
// PRE: none
// POST: returned state has a valid PriceSort and non-empty CategoryID
func ParseFilterState(q url.Values) FilterState {
	state := FilterState{
		SearchTerm: strings.TrimSpace(q.Get("q")),
		CategoryID: q.Get("category"),
		PriceSort:  q.Get("sort"),
	}
	if state.CategoryID == "" {
		state.CategoryID = category.All
	}
	if !isValidSort(state.PriceSort) {
		state.PriceSort = SortRelevant
	}
	return state
}

// FilterAndSort derives the visible product list from the full list and the
// filter state. It is a pure function: no hidden state, total over its input
// domain, and re-deriving with unchanged inputs yields an identical ordered
// list. The output is always a subset of the input.
//
// Stages, in fixed order:
//  1. non-empty SearchTerm keeps products whose name or description contains
//     it case-insensitively;
//  2. a CategoryID other than "all" keeps products with that exact category
//     (products without a category never match a specific filter);
//  3. price-low / price-high stable-sort ascending / descending by price;
//     relevant keeps the order produced by stages 1-2.
//
// PRE: none
// POST: result ⊆ products; equal prices retain their relative order
func FilterAndSort(products []product.Product, state FilterState) []product.Product {
	filtered := make([]product.Product, 0, len(products))

	term := strings.ToLower(state.SearchTerm)
	for _, p := range products {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		if state.CategoryID != category.All && p.CategoryID != state.CategoryID {
			continue
		}
		filtered = append(filtered, p)
	}

	switch state.PriceSort {
	case SortPriceLow:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].EffectivePrice() < filtered[j].EffectivePrice()
		})
	case SortPriceHigh:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].EffectivePrice() > filtered[j].EffectivePrice()
		})
	}

	return filtered
}

func isValidSort(s string) bool {
	for _, v := range ValidSorts {
		if v == s {
			return true
		}
	}
	return false
}
