package order

import (
	"context"

	domain "bagsberry/internal/domain/order"
)

// Store persists Order state. Orders are saved and loaded with their
// line items.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Order, error)
	Save(ctx context.Context, value domain.Order) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	AccountID string
	Status    string
	Limit     int
	Offset    int
}
