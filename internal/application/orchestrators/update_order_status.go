package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bagsberry/internal/domain/order"
)

// OrderStoreForStatus defines the store interface needed by UpdateOrderStatus.
type OrderStoreForStatus interface {
	GetByID(ctx context.Context, id string) (order.Order, error)
	Save(ctx context.Context, o order.Order) error
}

// UpdateOrderStatusInput carries input for the status update orchestrator.
type UpdateOrderStatusInput struct {
	OrderID           string
	NewStatus         string
	TrackingNumber    string // optional, recorded when moving to shipped
	EstimatedDelivery string // optional, free-text window
}

// UpdateOrderStatusDeps holds dependencies for UpdateOrderStatus.
// Email delivery reuses the checkout email path.
type UpdateOrderStatusDeps struct {
	OrderStore OrderStoreForStatus
	Email      CheckoutDeps // sender, outbox, from/reply-to, id and clock funcs
	Now        func() time.Time
}

// ExecuteUpdateOrderStatus moves an order through its lifecycle and
// notifies the customer. Cancellations update state without an email.
// PRE: OrderID exists, NewStatus is a valid status
// POST: Order saved with new status; customer emailed for forward moves
func ExecuteUpdateOrderStatus(ctx context.Context, input UpdateOrderStatusInput, deps UpdateOrderStatusDeps) (order.Order, error) {
	if input.OrderID == "" {
		return order.Order{}, errors.New("order ID is required")
	}

	o, err := deps.OrderStore.GetByID(ctx, input.OrderID)
	if err != nil {
		return order.Order{}, err
	}

	now := deps.Now()
	if input.TrackingNumber != "" || input.EstimatedDelivery != "" {
		if err := o.SetTracking(input.TrackingNumber, input.EstimatedDelivery, now); err != nil {
			return order.Order{}, err
		}
	}
	if err := o.TransitionTo(input.NewStatus, now); err != nil {
		return order.Order{}, err
	}

	if err := deps.OrderStore.Save(ctx, o); err != nil {
		return order.Order{}, err
	}

	if input.NewStatus != order.StatusCancelled {
		sendOrderEmail(ctx, deps.Email, o, "status_update")
	}

	slog.Info("order_event", "event", "order_status_updated", "order_id", o.ID, "status", o.Status)
	return o, nil
}
