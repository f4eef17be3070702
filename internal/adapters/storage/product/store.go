package product

import (
	"context"

	domain "bagsberry/internal/domain/product"
)

// Store persists Product state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
	Save(ctx context.Context, value domain.Product) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	// DecrementStock atomically reduces stock, clamping at zero.
	DecrementStock(ctx context.Context, id string, qty int) error
}

// ListFilter carries filtering parameters for List operations. Zero-value
// fields are ignored; a zero Limit means no limit.
type ListFilter struct {
	CategoryID string
	BrandID    string
	Search     string
	InStock    bool
	Limit      int
	Offset     int
}
