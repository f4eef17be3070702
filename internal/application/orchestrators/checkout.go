package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	emailAdapter "bagsberry/internal/adapters/email"
	"bagsberry/internal/domain/cart"
	"bagsberry/internal/domain/order"
	"bagsberry/internal/domain/outbox"
)

// OrderStoreForCheckout defines the store interface needed by Checkout.
type OrderStoreForCheckout interface {
	Save(ctx context.Context, o order.Order) error
}

// ProductStoreForCheckout defines the product operations needed by Checkout.
type ProductStoreForCheckout interface {
	DecrementStock(ctx context.Context, id string, qty int) error
}

// CartClearer removes a persisted cart after a successful checkout.
type CartClearer interface {
	Delete(ctx context.Context, token string) error
}

// OutboxStoreForCheckout queues an email for retry when direct delivery fails.
type OutboxStoreForCheckout interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// CheckoutInput carries input for the checkout orchestrator.
type CheckoutInput struct {
	Items     []cart.LineItem
	Shipping  order.ShippingInfo
	Location  *order.Location
	AccountID string // empty for guest checkout
	CartToken string // session cart to clear on success
}

// CheckoutDeps holds dependencies for Checkout.
type CheckoutDeps struct {
	OrderStore   OrderStoreForCheckout
	ProductStore ProductStoreForCheckout
	CartStore    CartClearer
	OutboxStore  OutboxStoreForCheckout
	EmailSender  emailAdapter.Sender
	GenerateID   func() string
	Now          func() time.Time
	FromAddress  string
	ReplyTo      string
}

// ErrEmptyCart is returned when checkout is attempted with no items.
var ErrEmptyCart = errors.New("cannot check out an empty cart")

// ExecuteCheckout turns a cart into a placed order. The order and its
// items are written atomically; stock decrement, cart cleanup and the
// confirmation email are best-effort follow-ups that never fail a
// placed order.
// PRE: input has items and valid shipping info
// POST: Order persisted with computed totals; cart cleared; email sent
// or queued for retry
func ExecuteCheckout(ctx context.Context, input CheckoutInput, deps CheckoutDeps) (order.Order, error) {
	if len(input.Items) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	now := deps.Now()
	o := order.Order{
		ID:            deps.GenerateID(),
		AccountID:     input.AccountID,
		Shipping:      input.Shipping,
		Location:      input.Location,
		Status:        order.StatusPending,
		PaymentMethod: order.PaymentMethodCOD,
		PaymentStatus: order.PaymentStatusPending,
		CreatedAt:     now,
	}
	for _, item := range input.Items {
		o.Items = append(o.Items, order.Item{
			ID:        deps.GenerateID(),
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	o.SetTotals()

	if err := o.Validate(); err != nil {
		return order.Order{}, err
	}

	if err := deps.OrderStore.Save(ctx, o); err != nil {
		return order.Order{}, err
	}

	// Stock tracking is advisory: a failed decrement never unwinds a
	// placed order.
	for _, item := range o.Items {
		if err := deps.ProductStore.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			slog.Warn("order_event", "event", "stock_decrement_failed", "order_id", o.ID, "product_id", item.ProductID, "error", err)
		}
	}

	if input.CartToken != "" && deps.CartStore != nil {
		if err := deps.CartStore.Delete(ctx, input.CartToken); err != nil {
			slog.Warn("order_event", "event", "cart_clear_failed", "order_id", o.ID, "error", err)
		}
	}

	sendOrderEmail(ctx, deps, o, "order_placed")

	slog.Info("order_event", "event", "order_placed", "order_id", o.ID, "order_number", o.OrderNumber(), "total", o.TotalAmount, "items", len(o.Items))
	return o, nil
}

// sendOrderEmail delivers an order email directly, falling back to the
// outbox when the provider rejects it.
func sendOrderEmail(ctx context.Context, deps CheckoutDeps, o order.Order, kind string) {
	if deps.EmailSender == nil {
		return
	}

	var subject, html string
	var err error
	if kind == "order_placed" {
		subject, html, err = BuildOrderPlacedEmail(o)
	} else {
		subject, html, err = BuildOrderStatusEmail(o)
	}
	if err != nil {
		slog.Warn("email_event", "event", "order_email_build_failed", "order_id", o.ID, "kind", kind, "error", err)
		return
	}

	req := emailAdapter.SendRequest{
		To:      []string{o.Shipping.Email},
		From:    deps.FromAddress,
		Subject: subject,
		HTML:    html,
		ReplyTo: deps.ReplyTo,
	}
	if _, err := deps.EmailSender.Send(ctx, req); err == nil {
		return
	}

	if deps.OutboxStore == nil {
		return
	}
	payload, err := json.Marshal(EmailPayload{
		To:      o.Shipping.Email,
		Subject: subject,
		HTML:    html,
		ReplyTo: deps.ReplyTo,
	})
	if err != nil {
		slog.Error("email_event", "event", "order_email_payload_failed", "order_id", o.ID, "error", err)
		return
	}
	entry := outbox.Entry{
		ID:         deps.GenerateID(),
		ActionType: outbox.ActionTypeOrderEmail,
		Payload:    string(payload),
		Status:     outbox.StatusPending,
		CreatedAt:  deps.Now(),
	}
	if err := entry.Validate(); err != nil {
		slog.Error("email_event", "event", "order_email_enqueue_invalid", "order_id", o.ID, "error", err)
		return
	}
	if err := deps.OutboxStore.Save(ctx, entry); err != nil {
		slog.Error("email_event", "event", "order_email_enqueue_failed", "order_id", o.ID, "error", err)
		return
	}
	slog.Info("email_event", "event", "order_email_queued", "order_id", o.ID, "kind", kind)
}
