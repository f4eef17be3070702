package brand

import (
	"context"

	domain "bagsberry/internal/domain/brand"
)

// Store persists Brand state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Brand, error)
	Save(ctx context.Context, value domain.Brand) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Brand, error)
}
