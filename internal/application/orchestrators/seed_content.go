package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"bagsberry/internal/domain/page"
	"bagsberry/internal/domain/playlist"

	"github.com/google/uuid"
)

// PageStoreForSeed defines the store interface needed by SeedPages.
type PageStoreForSeed interface {
	Save(ctx context.Context, p page.Page) error
	List(ctx context.Context) ([]page.Page, error)
}

// PlaylistStoreForSeed defines the store interface needed by SeedPlaylist.
type PlaylistStoreForSeed interface {
	Save(ctx context.Context, s playlist.Song) error
	List(ctx context.Context, activeOnly bool) ([]playlist.Song, error)
}

// SeedContentDeps holds dependencies for content seeding.
type SeedContentDeps struct {
	PageStore     PageStoreForSeed
	PlaylistStore PlaylistStoreForSeed
}

// ExecuteSeedContent creates the default content pages and the starter
// in-store playlist if none exist.
func ExecuteSeedContent(ctx context.Context, deps SeedContentDeps) error {
	existingPages, err := deps.PageStore.List(ctx)
	if err != nil {
		return err
	}
	if len(existingPages) == 0 {
		now := time.Now()
		pages := []page.Page{
			{ID: uuid.New().String(), Slug: "about", Title: "About Bagsberry", Body: "## Our story\n\nBagsberry started as a weekend market stall and grew into a small studio making bags we actually want to carry.", UpdatedAt: now},
			{ID: uuid.New().String(), Slug: "shipping", Title: "Shipping & Returns", Body: "Orders over **100** ship free. Everything else ships at a flat rate.\n\nReturns are accepted within 30 days, unworn and with tags.", UpdatedAt: now},
			{ID: uuid.New().String(), Slug: "faq", Title: "FAQ", Body: "### Do you ship internationally?\n\nNot yet — domestic only for now.\n\n### How do I care for my bag?\n\nWipe with a damp cloth; condition leather twice a year.", UpdatedAt: now},
			{ID: uuid.New().String(), Slug: "privacy", Title: "Privacy Policy", Body: "We store only what we need to fulfil your order: your name, contact details and delivery address. We never sell your data.", UpdatedAt: now},
			{ID: uuid.New().String(), Slug: "terms", Title: "Terms of Service", Body: "All orders are payable in cash on delivery. Prices include applicable taxes. We may cancel orders we cannot fulfil.", UpdatedAt: now},
			{ID: uuid.New().String(), Slug: "contact", Title: "Contact Us", Body: "Email us any time — we answer within one business day.\n\nStudio visits by appointment only.", UpdatedAt: now},
		}
		for _, p := range pages {
			if err := deps.PageStore.Save(ctx, p); err != nil {
				return err
			}
		}
		slog.Info("seed_event", "event", "pages_seeded", "pages", len(pages))
	}

	existingSongs, err := deps.PlaylistStore.List(ctx, false)
	if err != nil {
		return err
	}
	if len(existingSongs) == 0 {
		now := time.Now()
		songs := []playlist.Song{
			{ID: uuid.New().String(), Title: "Dreams", Artist: "Fleetwood Mac", YouTubeURL: "https://www.youtube.com/watch?v=mrZRURcb1cM", IsActive: true, PlayOrder: 1, CreatedAt: now},
			{ID: uuid.New().String(), Title: "Golden Hour", Artist: "JVKE", YouTubeURL: "https://www.youtube.com/watch?v=PEM0Vs8jf1w", IsActive: true, PlayOrder: 2, CreatedAt: now},
			{ID: uuid.New().String(), Title: "Put Your Records On", Artist: "Corinne Bailey Rae", YouTubeURL: "https://youtu.be/rjOhZZyn30k", IsActive: true, PlayOrder: 3, CreatedAt: now},
		}
		for _, s := range songs {
			if err := deps.PlaylistStore.Save(ctx, s); err != nil {
				return err
			}
		}
		slog.Info("seed_event", "event", "playlist_seeded", "songs", len(songs))
	}

	return nil
}
