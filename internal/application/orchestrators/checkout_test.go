package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	emailAdapter "bagsberry/internal/adapters/email"
	"bagsberry/internal/domain/cart"
	"bagsberry/internal/domain/order"
	"bagsberry/internal/domain/outbox"
)

type fakeOrderStore struct {
	saved   []order.Order
	saveErr error
}

func (f *fakeOrderStore) Save(_ context.Context, o order.Order) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, o)
	return nil
}

type fakeProductStore struct {
	decrements map[string]int
	failFor    string
}

func (f *fakeProductStore) DecrementStock(_ context.Context, id string, qty int) error {
	if id == f.failFor {
		return errors.New("product gone")
	}
	if f.decrements == nil {
		f.decrements = make(map[string]int)
	}
	f.decrements[id] += qty
	return nil
}

type fakeCartClearer struct {
	cleared []string
}

func (f *fakeCartClearer) Delete(_ context.Context, token string) error {
	f.cleared = append(f.cleared, token)
	return nil
}

type fakeSender struct {
	sent    []emailAdapter.SendRequest
	sendErr error
}

func (f *fakeSender) Send(_ context.Context, req emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	if f.sendErr != nil {
		return emailAdapter.SendResult{}, f.sendErr
	}
	f.sent = append(f.sent, req)
	return emailAdapter.SendResult{MessageID: "msg_1"}, nil
}

type fakeOutboxStore struct {
	entries []outbox.Entry
}

func (f *fakeOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func checkoutFixture() (CheckoutInput, CheckoutDeps, *fakeOrderStore, *fakeProductStore, *fakeCartClearer, *fakeSender, *fakeOutboxStore) {
	orders := &fakeOrderStore{}
	products := &fakeProductStore{}
	carts := &fakeCartClearer{}
	sender := &fakeSender{}
	ob := &fakeOutboxStore{}

	var seq int
	deps := CheckoutDeps{
		OrderStore:   orders,
		ProductStore: products,
		CartStore:    carts,
		OutboxStore:  ob,
		EmailSender:  sender,
		GenerateID:   func() string { seq++; return fmt.Sprintf("id-%d", seq) },
		Now:          func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
		FromAddress:  "Bagsberry <orders@bagsberry.com>",
		ReplyTo:      "hello@bagsberry.com",
	}
	input := CheckoutInput{
		Items: []cart.LineItem{
			{ProductID: "p1", Name: "Canvas Tote", Price: 49.99, Quantity: 2},
			{ProductID: "p2", Name: "Mini Crossbody", Price: 59.00, Quantity: 1},
		},
		Shipping: order.ShippingInfo{
			Name: "Asha Patel", Email: "asha@example.com", Address: "1 High St", City: "Wellington",
		},
		CartToken: "tok-1",
	}
	return input, deps, orders, products, carts, sender, ob
}

// TestExecuteCheckout_Success verifies the full happy path: order saved
// with totals, stock decremented, cart cleared, email sent.
func TestExecuteCheckout_Success(t *testing.T) {
	input, deps, orders, products, carts, sender, ob := checkoutFixture()

	o, err := ExecuteCheckout(context.Background(), input, deps)
	if err != nil {
		t.Fatalf("ExecuteCheckout failed: %v", err)
	}

	if len(orders.saved) != 1 {
		t.Fatalf("saved %d orders, want 1", len(orders.saved))
	}
	// 49.99*2 + 59 = 158.98 — above the free delivery threshold.
	if o.Subtotal != 158.98 || o.DeliveryCharge != 0 || o.TotalAmount != 158.98 {
		t.Errorf("totals = %v/%v/%v", o.Subtotal, o.DeliveryCharge, o.TotalAmount)
	}
	if o.Status != order.StatusPending || o.PaymentMethod != order.PaymentMethodCOD {
		t.Errorf("status/payment = %s/%s", o.Status, o.PaymentMethod)
	}

	if products.decrements["p1"] != 2 || products.decrements["p2"] != 1 {
		t.Errorf("decrements = %v", products.decrements)
	}
	if len(carts.cleared) != 1 || carts.cleared[0] != "tok-1" {
		t.Errorf("cleared carts = %v", carts.cleared)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	if sender.sent[0].To[0] != "asha@example.com" {
		t.Errorf("email to = %v", sender.sent[0].To)
	}
	if !strings.Contains(sender.sent[0].Subject, o.OrderNumber()) {
		t.Errorf("subject %q missing order number %s", sender.sent[0].Subject, o.OrderNumber())
	}
	if len(ob.entries) != 0 {
		t.Errorf("outbox entries = %d, want 0 on direct send", len(ob.entries))
	}
}

// TestExecuteCheckout_DeliveryCharge verifies small orders pay delivery.
func TestExecuteCheckout_DeliveryCharge(t *testing.T) {
	input, deps, _, _, _, _, _ := checkoutFixture()
	input.Items = []cart.LineItem{{ProductID: "p1", Name: "Clutch", Price: 49.00, Quantity: 1}}

	o, err := ExecuteCheckout(context.Background(), input, deps)
	if err != nil {
		t.Fatalf("ExecuteCheckout failed: %v", err)
	}
	if o.DeliveryCharge != order.StandardDelivery {
		t.Errorf("delivery = %v, want %v", o.DeliveryCharge, order.StandardDelivery)
	}
	if o.TotalAmount != 49.00+order.StandardDelivery {
		t.Errorf("total = %v", o.TotalAmount)
	}
}

// TestExecuteCheckout_EmptyCart verifies checkout rejects an empty cart.
func TestExecuteCheckout_EmptyCart(t *testing.T) {
	input, deps, orders, _, _, _, _ := checkoutFixture()
	input.Items = nil

	if _, err := ExecuteCheckout(context.Background(), input, deps); err != ErrEmptyCart {
		t.Errorf("got %v, want ErrEmptyCart", err)
	}
	if len(orders.saved) != 0 {
		t.Error("order saved despite empty cart")
	}
}

// TestExecuteCheckout_InvalidShipping verifies validation failures leave
// no side effects.
func TestExecuteCheckout_InvalidShipping(t *testing.T) {
	input, deps, orders, products, carts, sender, _ := checkoutFixture()
	input.Shipping.Email = ""

	if _, err := ExecuteCheckout(context.Background(), input, deps); err != order.ErrEmptyCustomerEmail {
		t.Errorf("got %v, want ErrEmptyCustomerEmail", err)
	}
	if len(orders.saved) != 0 || len(products.decrements) != 0 || len(carts.cleared) != 0 || len(sender.sent) != 0 {
		t.Error("side effects observed on invalid input")
	}
}

// TestExecuteCheckout_SaveFailure verifies a failed save keeps the cart
// and sends nothing.
func TestExecuteCheckout_SaveFailure(t *testing.T) {
	input, deps, orders, products, carts, sender, _ := checkoutFixture()
	orders.saveErr = errors.New("disk full")

	if _, err := ExecuteCheckout(context.Background(), input, deps); err == nil {
		t.Fatal("expected save error")
	}
	if len(products.decrements) != 0 {
		t.Error("stock decremented despite failed save")
	}
	if len(carts.cleared) != 0 {
		t.Error("cart cleared despite failed save")
	}
	if len(sender.sent) != 0 {
		t.Error("email sent despite failed save")
	}
}

// TestExecuteCheckout_StockFailureIsBestEffort verifies a stock error
// does not fail the order.
func TestExecuteCheckout_StockFailureIsBestEffort(t *testing.T) {
	input, deps, orders, products, _, _, _ := checkoutFixture()
	products.failFor = "p1"

	if _, err := ExecuteCheckout(context.Background(), input, deps); err != nil {
		t.Fatalf("ExecuteCheckout failed: %v", err)
	}
	if len(orders.saved) != 1 {
		t.Error("order not saved despite stock failure")
	}
	if products.decrements["p2"] != 1 {
		t.Error("other items not decremented")
	}
}

// TestExecuteCheckout_EmailFailureQueuesOutbox verifies a rejected email
// is queued for retry instead of failing the order.
func TestExecuteCheckout_EmailFailureQueuesOutbox(t *testing.T) {
	input, deps, orders, _, carts, sender, ob := checkoutFixture()
	sender.sendErr = errors.New("provider down")

	o, err := ExecuteCheckout(context.Background(), input, deps)
	if err != nil {
		t.Fatalf("ExecuteCheckout failed: %v", err)
	}
	if len(orders.saved) != 1 || len(carts.cleared) != 1 {
		t.Error("order placement affected by email failure")
	}
	if len(ob.entries) != 1 {
		t.Fatalf("outbox entries = %d, want 1", len(ob.entries))
	}
	entry := ob.entries[0]
	if entry.ActionType != outbox.ActionTypeOrderEmail || entry.Status != outbox.StatusPending {
		t.Errorf("entry = %+v", entry)
	}
	if !strings.Contains(entry.Payload, o.OrderNumber()) {
		t.Error("payload missing order number")
	}
}

// TestExecuteCheckout_GuestOrder verifies guest checkout with no account.
func TestExecuteCheckout_GuestOrder(t *testing.T) {
	input, deps, orders, _, _, _, _ := checkoutFixture()
	input.AccountID = ""
	input.CartToken = ""

	if _, err := ExecuteCheckout(context.Background(), input, deps); err != nil {
		t.Fatalf("ExecuteCheckout failed: %v", err)
	}
	if orders.saved[0].AccountID != "" {
		t.Error("guest order has account ID")
	}
}
