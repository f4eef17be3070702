package product

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 5000
)

// Domain errors
var (
	ErrEmptyName        = errors.New("product name cannot be empty")
	ErrNameTooLong      = errors.New("product name cannot exceed 200 characters")
	ErrNegativePrice    = errors.New("product price cannot be negative")
	ErrNegativeSale     = errors.New("sale price cannot be negative")
	ErrSaleAbovePrice   = errors.New("sale price must be below the regular price")
	ErrNegativeStock    = errors.New("stock quantity cannot be negative")
	ErrEmptyCategory    = errors.New("product category is required")
	ErrInsufficientQty  = errors.New("decrement quantity must be positive")
)

// Product represents a catalog item available for purchase.
// Description supports Markdown formatting.
type Product struct {
	ID            string
	Name          string
	Description   string // Markdown content
	Price         float64
	SalePrice     float64 // 0 = no sale
	CategoryID    string
	BrandID       string
	StockQuantity int
	ImageURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if the Product has valid data.
// PRE: Product struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(p.Description) > MaxDescriptionLength {
		return errors.New("product description cannot exceed 5000 characters")
	}
	if p.Price < 0 {
		return ErrNegativePrice
	}
	if p.SalePrice < 0 {
		return ErrNegativeSale
	}
	if p.SalePrice > 0 && p.SalePrice >= p.Price {
		return ErrSaleAbovePrice
	}
	if p.StockQuantity < 0 {
		return ErrNegativeStock
	}
	if p.CategoryID == "" {
		return ErrEmptyCategory
	}
	return nil
}

// EffectivePrice returns the sale price when one is set, otherwise the
// regular price. This is the unit price the cart denormalizes at add time.
// INVARIANT: Product fields are not mutated
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice > 0 && p.SalePrice < p.Price {
		return p.SalePrice
	}
	return p.Price
}

// OnSale returns true if the product has a valid sale price.
// INVARIANT: Product fields are not mutated
func (p *Product) OnSale() bool {
	return p.SalePrice > 0 && p.SalePrice < p.Price
}

// InStock returns true if at least one unit is available.
// INVARIANT: Product fields are not mutated
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// DecrementStock reduces the stock by qty, clamping at zero. Stock is a
// best-effort counter: orders succeed even when it underflows, so a
// decrement past zero clamps instead of failing the checkout.
// PRE: qty > 0
// POST: StockQuantity >= 0
func (p *Product) DecrementStock(qty int) error {
	if qty <= 0 {
		return ErrInsufficientQty
	}
	p.StockQuantity -= qty
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}
	return nil
}
