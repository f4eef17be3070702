package projections

import (
	"context"

	"bagsberry/internal/adapters/storage/order"
	"bagsberry/internal/adapters/storage/product"
	domainCategory "bagsberry/internal/domain/category"
	domainOrder "bagsberry/internal/domain/order"
	domainOutbox "bagsberry/internal/domain/outbox"
	domainProduct "bagsberry/internal/domain/product"
)

// ProductStore interface for product queries.
type ProductStore interface {
	List(ctx context.Context, filter product.ListFilter) ([]domainProduct.Product, error)
	Count(ctx context.Context, filter product.ListFilter) (int, error)
}

// CategoryStore interface for category queries.
type CategoryStore interface {
	List(ctx context.Context) ([]domainCategory.Category, error)
}

// OrderStore interface for order queries.
type OrderStore interface {
	List(ctx context.Context, filter order.ListFilter) ([]domainOrder.Order, error)
	Count(ctx context.Context, filter order.ListFilter) (int, error)
}

// OutboxStore interface for outbox queries.
type OutboxStore interface {
	ListPending(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
	ListFailed(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
}

// AccountStore interface for account queries.
type AccountStore interface {
	Count(ctx context.Context) (int, error)
}
