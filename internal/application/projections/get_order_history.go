package projections

import (
	"context"
	"errors"
	"time"

	"bagsberry/internal/adapters/storage/order"
	"bagsberry/internal/application/listutil"
)

// ErrMissingAccountID indicates an order history query without an account.
var ErrMissingAccountID = errors.New("order history requires an account ID")

// GetOrderHistoryQuery carries query parameters.
type GetOrderHistoryQuery struct {
	AccountID string
	Paging    listutil.Pagination
}

// OrderSummary is one row of a customer's order history.
type OrderSummary struct {
	ID          string
	OrderNumber string
	Status      string
	PaymentMeth string
	PaymentStat string
	ItemCount   int
	TotalAmount float64
	CreatedAt   time.Time
}

// GetOrderHistoryDeps holds dependencies for the order history projection.
type GetOrderHistoryDeps struct {
	OrderStore OrderStore
}

// GetOrderHistoryResult carries the query result.
type GetOrderHistoryResult struct {
	Orders   []OrderSummary
	PageInfo listutil.PageInfo
}

// QueryGetOrderHistory lists a customer's orders, newest first.
// PRE: query.AccountID is non-empty
// POST: Returns summaries for the requested page only
func QueryGetOrderHistory(ctx context.Context, query GetOrderHistoryQuery, deps GetOrderHistoryDeps) (GetOrderHistoryResult, error) {
	if query.AccountID == "" {
		return GetOrderHistoryResult{}, ErrMissingAccountID
	}

	total, err := deps.OrderStore.Count(ctx, order.ListFilter{AccountID: query.AccountID})
	if err != nil {
		return GetOrderHistoryResult{}, err
	}
	info := listutil.NewPageInfo(query.Paging.Page, query.Paging.PerPage, total)

	orders, err := deps.OrderStore.List(ctx, order.ListFilter{
		AccountID: query.AccountID,
		Limit:     info.PerPage,
		Offset:    info.Offset(),
	})
	if err != nil {
		return GetOrderHistoryResult{}, err
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		qty := 0
		for _, item := range o.Items {
			qty += item.Quantity
		}
		summaries = append(summaries, OrderSummary{
			ID:          o.ID,
			OrderNumber: o.OrderNumber(),
			Status:      o.Status,
			PaymentMeth: o.PaymentMethod,
			PaymentStat: o.PaymentStatus,
			ItemCount:   qty,
			TotalAmount: o.TotalAmount,
			CreatedAt:   o.CreatedAt,
		})
	}

	return GetOrderHistoryResult{Orders: summaries, PageInfo: info}, nil
}
