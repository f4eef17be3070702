package projections

import (
	"context"

	"bagsberry/internal/adapters/storage/order"
	"bagsberry/internal/adapters/storage/product"
	domainOrder "bagsberry/internal/domain/order"
	domainProduct "bagsberry/internal/domain/product"
)

// LowStockThreshold is the stock level at which a product appears on the
// dashboard's reorder list.
const LowStockThreshold = 5

// GetDashboardDeps holds dependencies for the back-office dashboard.
type GetDashboardDeps struct {
	ProductStore ProductStore
	OrderStore   OrderStore
	AccountStore AccountStore
	OutboxStore  OutboxStore // optional: nil skips the email queue panel
}

// DashboardResult carries the aggregated back-office overview.
type DashboardResult struct {
	ProductCount  int
	CustomerCount int

	// Orders
	OrdersByStatus map[string]int
	Revenue        float64 // total of all non-cancelled orders
	RecentOrders   []domainOrder.Order

	// Inventory
	LowStock []domainProduct.Product

	// Email queue
	PendingEmails int
	FailedEmails  int
}

// QueryGetDashboard aggregates the counts and lists the back-office landing
// page shows. Each panel degrades independently: a failing source leaves
// its panel zeroed rather than failing the whole page.
func QueryGetDashboard(ctx context.Context, deps GetDashboardDeps) (DashboardResult, error) {
	result := DashboardResult{OrdersByStatus: make(map[string]int)}

	if count, err := deps.ProductStore.Count(ctx, product.ListFilter{}); err == nil {
		result.ProductCount = count
	}
	if count, err := deps.AccountStore.Count(ctx); err == nil {
		result.CustomerCount = count
	}

	for _, status := range domainOrder.ValidStatuses {
		count, err := deps.OrderStore.Count(ctx, order.ListFilter{Status: status})
		if err == nil && count > 0 {
			result.OrdersByStatus[status] = count
		}
	}

	// Revenue walks every order; order volume is small enough that the
	// simple pass beats maintaining a separate aggregate.
	orders, err := deps.OrderStore.List(ctx, order.ListFilter{})
	if err == nil {
		for _, o := range orders {
			if o.Status != domainOrder.StatusCancelled {
				result.Revenue += o.TotalAmount
			}
		}
	}

	recent, err := deps.OrderStore.List(ctx, order.ListFilter{Limit: 5})
	if err == nil {
		result.RecentOrders = recent
	}

	products, err := deps.ProductStore.List(ctx, product.ListFilter{})
	if err == nil {
		for _, p := range products {
			if p.StockQuantity <= LowStockThreshold {
				result.LowStock = append(result.LowStock, p)
			}
		}
	}

	if deps.OutboxStore != nil {
		if pending, err := deps.OutboxStore.ListPending(ctx, 100); err == nil {
			result.PendingEmails = len(pending)
		}
		if failed, err := deps.OutboxStore.ListFailed(ctx, 100); err == nil {
			result.FailedEmails = len(failed)
		}
	}

	return result, nil
}
