package cart

import (
	"encoding/json"
)

// LineItem is one entry in the cart: a single product and its requested
// quantity. Name, Price and ImageURL are denormalized at add time and do not
// track later catalog changes.
type LineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl"`
}

// Cart holds the current shopping session's intended purchases.
// INVARIANT: at most one line item per ProductID; every Quantity >= 1.
type Cart struct {
	Items []LineItem
}

// AddItem merges the item into the cart. If a line item with the same
// ProductID exists its quantity increases by item.Quantity; otherwise the
// item is appended. Items with quantity <= 0 are rejected as a no-op.
// PRE: none
// POST: invariant holds; cart unchanged when item.Quantity <= 0 or ProductID empty
func (c *Cart) AddItem(item LineItem) {
	if item.ProductID == "" || item.Quantity <= 0 {
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets the line item's quantity. A quantity <= 0 removes the
// line item. Unknown product IDs are a silent no-op.
// PRE: none
// POST: no zero-quantity line items remain
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return
			}
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem removes the matching line item if present; no-op otherwise.
// PRE: none
// POST: no line item with productID remains
func (c *Cart) RemoveItem(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
// PRE: none
// POST: cart has no line items
func (c *Cart) Clear() {
	c.Items = nil
}

// Total returns the sum over all line items of price × quantity.
// Always recomputed from the line items; never cached.
// INVARIANT: Cart is not mutated
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ItemCount returns the total number of units across all line items.
// INVARIANT: Cart is not mutated
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty returns true if the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Get returns the line item for productID, if present.
// INVARIANT: Cart is not mutated
func (c *Cart) Get(productID string) (LineItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

// Encode serializes the cart's line items as a JSON array.
// PRE: none
// POST: Decode(Encode(c)) reproduces an equal cart
func (c *Cart) Encode() []byte {
	items := c.Items
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		// A slice of plain structs cannot fail to marshal; keep the
		// contract total anyway.
		return []byte("[]")
	}
	return data
}

// Decode restores a cart from a serialized JSON array. Missing, empty or
// malformed payloads degrade to an empty cart rather than an error. Line
// items that violate the cart invariant (duplicates, non-positive
// quantities) are dropped during restore.
// PRE: none
// POST: returned cart satisfies the cart invariant
func Decode(data []byte) Cart {
	if len(data) == 0 {
		return Cart{}
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return Cart{}
	}
	var c Cart
	for _, item := range items {
		c.AddItem(item)
	}
	return c
}
