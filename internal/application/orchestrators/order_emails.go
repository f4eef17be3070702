package orchestrators

import (
	"bytes"
	"fmt"
	"html/template"

	"bagsberry/internal/domain/order"
)

// statusSubjects maps order statuses to the customer-facing subject line.
var statusSubjects = map[string]string{
	order.StatusConfirmed:  "Your Bagsberry order %s is confirmed",
	order.StatusProcessing: "Your Bagsberry order %s is being prepared",
	order.StatusShipped:    "Your Bagsberry order %s is on its way",
	order.StatusDelivered:  "Your Bagsberry order %s has been delivered",
}

var statusIntros = map[string]string{
	order.StatusConfirmed:  "Good news — we've confirmed your order and will start preparing it shortly.",
	order.StatusProcessing: "Your order is being picked and packed in our warehouse.",
	order.StatusShipped:    "Your order has left our warehouse.",
	order.StatusDelivered:  "Your order has been delivered. We hope you love it!",
}

var orderEmailTmpl = template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #b0486b;">Bagsberry</h1>
  <h2>{{.Heading}}</h2>
  <p>Hi {{.Order.Shipping.Name}},</p>
  <p>{{.Intro}}</p>
  <p><strong>Order number:</strong> {{.Order.OrderNumber}}</p>
  {{if .Order.TrackingNumber}}<p><strong>Tracking number:</strong> {{.Order.TrackingNumber}}</p>{{end}}
  {{if .Order.EstimatedDelivery}}<p><strong>Estimated delivery:</strong> {{.Order.EstimatedDelivery}}</p>{{end}}
  <table width="100%" cellpadding="6" style="border-collapse: collapse;">
    <tr style="border-bottom: 1px solid #ddd; text-align: left;">
      <th>Item</th><th>Qty</th><th>Price</th>
    </tr>
    {{range .Order.Items}}
    <tr style="border-bottom: 1px solid #eee;">
      <td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{printf "%.2f" .Price}}</td>
    </tr>
    {{end}}
  </table>
  <p>
    Subtotal: {{printf "%.2f" .Order.Subtotal}}<br>
    Delivery: {{if eq .Order.DeliveryCharge 0.0}}Free{{else}}{{printf "%.2f" .Order.DeliveryCharge}}{{end}}<br>
    <strong>Total: {{printf "%.2f" .Order.TotalAmount}}</strong>
  </p>
  <p>
    Shipping to:<br>
    {{.Order.Shipping.Address}}{{if .Order.Shipping.City}}, {{.Order.Shipping.City}}{{end}}{{if .Order.Shipping.State}}, {{.Order.Shipping.State}}{{end}}{{if .Order.Shipping.Zip}} {{.Order.Shipping.Zip}}{{end}}
  </p>
  <p>Payment: cash on delivery{{if eq .Order.PaymentStatus "paid"}} (paid){{end}}.</p>
  <p style="color: #999; font-size: 12px;">Questions? Just reply to this email.</p>
</body>
</html>`))

type orderEmailData struct {
	Heading string
	Intro   string
	Order   *order.Order
}

// BuildOrderPlacedEmail renders the confirmation sent right after checkout.
// PRE: o has items and shipping info
// POST: Returns subject and HTML body
func BuildOrderPlacedEmail(o order.Order) (string, string, error) {
	subject := fmt.Sprintf("Thanks for your Bagsberry order %s", o.OrderNumber())
	html, err := renderOrderEmail(orderEmailData{
		Heading: "Thanks for your order!",
		Intro:   "We've received your order and will send another email once it's confirmed.",
		Order:   &o,
	})
	return subject, html, err
}

// BuildOrderStatusEmail renders the update sent when an order changes
// status. Returns an error for statuses with no customer-facing email
// (pending, cancelled).
// PRE: o.Status is a post-checkout lifecycle status
// POST: Returns subject and HTML body
func BuildOrderStatusEmail(o order.Order) (string, string, error) {
	subjectFmt, ok := statusSubjects[o.Status]
	if !ok {
		return "", "", fmt.Errorf("no email defined for status %q", o.Status)
	}
	subject := fmt.Sprintf(subjectFmt, o.OrderNumber())
	html, err := renderOrderEmail(orderEmailData{
		Heading: fmt.Sprintf("Order %s: %s", o.OrderNumber(), o.Status),
		Intro:   statusIntros[o.Status],
		Order:   &o,
	})
	return subject, html, err
}

func renderOrderEmail(data orderEmailData) (string, error) {
	var buf bytes.Buffer
	if err := orderEmailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render order email: %w", err)
	}
	return buf.String(), nil
}
