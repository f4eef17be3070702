package page

import (
	"context"

	domain "bagsberry/internal/domain/page"
)

// Store persists content pages.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Page, error)
	GetBySlug(ctx context.Context, slug string) (domain.Page, error)
	Save(ctx context.Context, value domain.Page) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Page, error)
}
