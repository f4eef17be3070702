package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"bagsberry/internal/domain/brand"
	"bagsberry/internal/domain/category"
	"bagsberry/internal/domain/product"

	"github.com/google/uuid"
)

// CategoryStoreForSeed defines the store interface needed by SeedCatalog.
type CategoryStoreForSeed interface {
	Save(ctx context.Context, c category.Category) error
	List(ctx context.Context) ([]category.Category, error)
}

// BrandStoreForSeed defines the store interface needed by SeedCatalog.
type BrandStoreForSeed interface {
	Save(ctx context.Context, b brand.Brand) error
}

// ProductStoreForSeed defines the store interface needed by SeedCatalog.
type ProductStoreForSeed interface {
	Save(ctx context.Context, p product.Product) error
}

// SeedCatalogDeps holds dependencies for SeedCatalog.
type SeedCatalogDeps struct {
	CategoryStore CategoryStoreForSeed
	BrandStore    BrandStoreForSeed
	ProductStore  ProductStoreForSeed
}

// ExecuteSeedCatalog creates default categories, brands and a starter
// product range if the catalog is empty.
func ExecuteSeedCatalog(ctx context.Context, deps SeedCatalogDeps) error {
	existing, err := deps.CategoryStore.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil // Already seeded
	}

	now := time.Now()

	totesID := uuid.New().String()
	shoulderID := uuid.New().String()
	crossbodyID := uuid.New().String()
	clutchesID := uuid.New().String()
	backpacksID := uuid.New().String()

	categories := []category.Category{
		{ID: totesID, Name: "Totes", CreatedAt: now},
		{ID: shoulderID, Name: "Shoulder Bags", CreatedAt: now},
		{ID: crossbodyID, Name: "Crossbody", CreatedAt: now},
		{ID: clutchesID, Name: "Clutches", CreatedAt: now},
		{ID: backpacksID, Name: "Backpacks", CreatedAt: now},
	}
	for _, c := range categories {
		if err := deps.CategoryStore.Save(ctx, c); err != nil {
			return err
		}
	}

	houseID := uuid.New().String()
	brands := []brand.Brand{
		{ID: houseID, Name: "Bagsberry Studio", Description: "Our in-house line, made in small batches.", CreatedAt: now},
		{ID: uuid.New().String(), Name: "Mara & Finch", Description: "Vegetable-tanned leather goods.", CreatedAt: now},
	}
	for _, b := range brands {
		if err := deps.BrandStore.Save(ctx, b); err != nil {
			return err
		}
	}

	products := []product.Product{
		{ID: uuid.New().String(), Name: "Everyday Canvas Tote", Description: "A roomy workhorse tote in waxed canvas.\n\n- Interior zip pocket\n- Fits a 15\" laptop", Price: 49.99, CategoryID: totesID, BrandID: houseID, StockQuantity: 40, CreatedAt: now},
		{ID: uuid.New().String(), Name: "Weekend Leather Tote", Description: "Full-grain leather with a suede lining.", Price: 189.00, SalePrice: 159.00, CategoryID: totesID, BrandID: houseID, StockQuantity: 12, CreatedAt: now},
		{ID: uuid.New().String(), Name: "City Shoulder Bag", Description: "Structured shoulder bag with a magnetic flap.", Price: 119.00, CategoryID: shoulderID, BrandID: houseID, StockQuantity: 20, CreatedAt: now},
		{ID: uuid.New().String(), Name: "Mini Crossbody", Description: "Compact crossbody for phone, cards and keys.", Price: 59.00, CategoryID: crossbodyID, BrandID: houseID, StockQuantity: 35, CreatedAt: now},
		{ID: uuid.New().String(), Name: "Evening Clutch", Description: "Satin clutch with a detachable chain strap.", Price: 79.00, SalePrice: 49.00, CategoryID: clutchesID, BrandID: houseID, StockQuantity: 15, CreatedAt: now},
		{ID: uuid.New().String(), Name: "Commuter Backpack", Description: "Water-resistant backpack with padded laptop sleeve.", Price: 139.00, CategoryID: backpacksID, BrandID: houseID, StockQuantity: 25, CreatedAt: now},
	}
	for _, p := range products {
		if err := deps.ProductStore.Save(ctx, p); err != nil {
			return err
		}
	}

	slog.Info("seed_event", "event", "catalog_seeded", "categories", len(categories), "brands", len(brands), "products", len(products))
	return nil
}
