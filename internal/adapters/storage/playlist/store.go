package playlist

import (
	"context"

	domain "bagsberry/internal/domain/playlist"
)

// Store persists the in-store music playlist.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Song, error)
	Save(ctx context.Context, value domain.Song) error
	Delete(ctx context.Context, id string) error
	// List returns all songs ordered by play order. Set activeOnly to
	// restrict to songs enabled for playback.
	List(ctx context.Context, activeOnly bool) ([]domain.Song, error)
}
