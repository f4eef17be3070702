package brand

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyName   = errors.New("brand name cannot be empty")
	ErrNameTooLong = errors.New("brand name cannot exceed 100 characters")
)

// Brand is a product manufacturer or label shown on detail pages and
// managed from the back-office.
type Brand struct {
	ID          string
	Name        string
	Description string
	LogoURL     string
	CreatedAt   time.Time
}

// Validate checks if the Brand has valid data.
// PRE: Brand struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Brand) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return ErrNameTooLong
	}
	return nil
}
