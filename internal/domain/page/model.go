package page

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptySlug   = errors.New("page slug cannot be empty")
	ErrInvalidSlug = errors.New("page slug must be lowercase letters, digits and hyphens")
	ErrEmptyTitle  = errors.New("page title cannot be empty")
	ErrEmptyBody   = errors.New("page body cannot be empty")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Page is a static storefront content page (about, faq, privacy, ...).
// Body supports Markdown formatting.
type Page struct {
	ID        string
	Slug      string
	Title     string
	Body      string // Markdown content
	UpdatedAt time.Time
}

// Validate checks if the Page has valid data.
// PRE: Page struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Page) Validate() error {
	if strings.TrimSpace(p.Slug) == "" {
		return ErrEmptySlug
	}
	if !slugPattern.MatchString(p.Slug) {
		return ErrInvalidSlug
	}
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(p.Body) == "" {
		return ErrEmptyBody
	}
	return nil
}
