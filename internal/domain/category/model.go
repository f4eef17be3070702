package category

import (
	"errors"
	"strings"
	"time"
)

// All is the sentinel category identifier meaning "no category filter".
const All = "all"

// Domain errors
var (
	ErrEmptyName   = errors.New("category name cannot be empty")
	ErrNameTooLong = errors.New("category name cannot exceed 100 characters")
)

// Category groups products for browsing and filtering.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Validate checks if the Category has valid data.
// PRE: Category struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	return nil
}
