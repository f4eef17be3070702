package projections

import (
	"context"

	"bagsberry/internal/adapters/storage/product"
	"bagsberry/internal/application/listutil"
	"bagsberry/internal/domain/catalog"
	domainCategory "bagsberry/internal/domain/category"
	domainProduct "bagsberry/internal/domain/product"
)

// GetCatalogPageQuery carries the browsing criteria and paging for the
// storefront product grid.
type GetCatalogPageQuery struct {
	Filter catalog.FilterState
	Paging listutil.Pagination
}

// GetCatalogPageDeps holds dependencies for the catalog page projection.
type GetCatalogPageDeps struct {
	ProductStore  ProductStore
	CategoryStore CategoryStore
}

// GetCatalogPageResult carries the visible product page plus the data the
// filter bar needs to render.
type GetCatalogPageResult struct {
	Products   []domainProduct.Product
	Categories []domainCategory.Category
	Filter     catalog.FilterState
	PageInfo   listutil.PageInfo
}

// QueryGetCatalogPage derives the product grid for one request. Filtering
// and sorting run in memory over the full catalog so that search, category
// and price sort compose exactly the same way regardless of page.
// PRE: query.Paging has been parsed (Page >= 1)
// POST: Products is the requested page of the filtered, sorted catalog
func QueryGetCatalogPage(ctx context.Context, query GetCatalogPageQuery, deps GetCatalogPageDeps) (GetCatalogPageResult, error) {
	all, err := deps.ProductStore.List(ctx, product.ListFilter{})
	if err != nil {
		return GetCatalogPageResult{}, err
	}

	visible := catalog.FilterAndSort(all, query.Filter)

	info := listutil.NewPageInfo(query.Paging.Page, query.Paging.PerPage, len(visible))
	start := info.Offset()
	end := start + info.PerPage
	if start > len(visible) {
		start = len(visible)
	}
	if end > len(visible) {
		end = len(visible)
	}

	categories, err := deps.CategoryStore.List(ctx)
	if err != nil {
		return GetCatalogPageResult{}, err
	}

	return GetCatalogPageResult{
		Products:   visible[start:end],
		Categories: categories,
		Filter:     query.Filter,
		PageInfo:   info,
	}, nil
}
