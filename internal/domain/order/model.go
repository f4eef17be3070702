package order

import (
	"errors"
	"strings"
	"time"
)

// Order statuses, in lifecycle order.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment constants. Checkout is cash-on-delivery only.
const (
	PaymentMethodCOD     = "cod"
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Delivery charge configuration: orders at or above the threshold ship free,
// everything below pays the standard charge. No tax is applied.
const (
	FreeDeliveryThreshold = 100.0
	StandardDelivery      = 9.99
)

// ValidStatuses contains all valid order statuses.
var ValidStatuses = []string{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// Domain errors
var (
	ErrNoItems            = errors.New("order must contain at least one item")
	ErrEmptyCustomerName  = errors.New("customer name is required")
	ErrEmptyCustomerEmail = errors.New("customer email is required")
	ErrInvalidEmail       = errors.New("customer email must contain '@'")
	ErrEmptyAddress       = errors.New("shipping address is required")
	ErrInvalidStatus      = errors.New("order status must be one of: pending, confirmed, processing, shipped, delivered, cancelled")
	ErrTerminalStatus     = errors.New("order is in a terminal status")
	ErrInvalidTransition  = errors.New("order status cannot move backwards")
	ErrInvalidItem        = errors.New("order item must have a product, positive quantity and non-negative price")
)

// statusRank orders the forward lifecycle; cancelled sits outside it.
var statusRank = map[string]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// Item is one purchased line of an order, denormalized from the cart at
// checkout time.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Price     float64 // unit price at checkout
	Quantity  int
	ImageURL  string
}

// ShippingInfo carries the contact and address fields collected at checkout.
type ShippingInfo struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	Zip     string
}

// Location is the optional delivery geolocation picked on the checkout map.
type Location struct {
	Latitude  float64
	Longitude float64
	MapURL    string
}

// Order is a finalized checkout: line items plus shipping, payment and
// fulfilment state.
type Order struct {
	ID                string
	AccountID         string
	Items             []Item
	Shipping          ShippingInfo
	Location          *Location // nil when the customer skipped the map picker
	Subtotal          float64
	DeliveryCharge    float64
	TotalAmount       float64
	Status            string
	PaymentMethod     string
	PaymentStatus     string
	TrackingNumber    string
	EstimatedDelivery string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Validate checks if the Order has valid data.
// PRE: Order struct is populated
// POST: Returns nil if valid, error otherwise
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range o.Items {
		if item.ProductID == "" || item.Quantity <= 0 || item.Price < 0 {
			return ErrInvalidItem
		}
	}
	if strings.TrimSpace(o.Shipping.Name) == "" {
		return ErrEmptyCustomerName
	}
	if strings.TrimSpace(o.Shipping.Email) == "" {
		return ErrEmptyCustomerEmail
	}
	if !strings.Contains(o.Shipping.Email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(o.Shipping.Address) == "" {
		return ErrEmptyAddress
	}
	if !isValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// OrderNumber returns the short human-facing order reference: the first
// eight characters of the ID, uppercased.
// INVARIANT: Order fields are not mutated
func (o *Order) OrderNumber() string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// ComputeSubtotal returns the sum of price × quantity over the items,
// recomputed from the line items on every call.
// INVARIANT: Order fields are not mutated
func (o *Order) ComputeSubtotal() float64 {
	var subtotal float64
	for _, item := range o.Items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return subtotal
}

// DeliveryChargeFor returns the delivery charge for a given subtotal.
func DeliveryChargeFor(subtotal float64) float64 {
	if subtotal >= FreeDeliveryThreshold {
		return 0
	}
	return StandardDelivery
}

// SetTotals fills Subtotal, DeliveryCharge and TotalAmount from the items.
// Total is subtotal + delivery; no tax in this configuration.
// PRE: Items are set
// POST: TotalAmount == Subtotal + DeliveryCharge
func (o *Order) SetTotals() {
	o.Subtotal = o.ComputeSubtotal()
	o.DeliveryCharge = DeliveryChargeFor(o.Subtotal)
	o.TotalAmount = o.Subtotal + o.DeliveryCharge
}

// IsTerminal returns true once the order can no longer change status.
// INVARIANT: Order fields are not mutated
func (o *Order) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// TransitionTo moves the order to a new status. The forward lifecycle only
// moves ahead (pending → confirmed → processing → shipped → delivered);
// cancellation is allowed from any non-terminal status. Delivery marks COD
// payment as paid.
// PRE: newStatus is a valid status
// POST: Status updated, UpdatedAt set; payment marked paid on delivery
func (o *Order) TransitionTo(newStatus string, now time.Time) error {
	if !isValidStatus(newStatus) {
		return ErrInvalidStatus
	}
	if o.IsTerminal() {
		return ErrTerminalStatus
	}
	if newStatus != StatusCancelled {
		if statusRank[newStatus] < statusRank[o.Status] {
			return ErrInvalidTransition
		}
	}
	o.Status = newStatus
	o.UpdatedAt = now
	if newStatus == StatusDelivered && o.PaymentMethod == PaymentMethodCOD {
		o.PaymentStatus = PaymentStatusPaid
	}
	return nil
}

// SetTracking records the tracking number and estimated delivery window.
// PRE: order is not terminal
// POST: tracking fields set, UpdatedAt set
func (o *Order) SetTracking(trackingNumber, estimatedDelivery string, now time.Time) error {
	if o.IsTerminal() {
		return ErrTerminalStatus
	}
	o.TrackingNumber = trackingNumber
	o.EstimatedDelivery = estimatedDelivery
	o.UpdatedAt = now
	return nil
}

func isValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
