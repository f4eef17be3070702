package cartsession

import (
	"context"
	"time"
)

// Session is one visitor's persisted cart: the encoded line item
// collection keyed by the cart token cookie.
type Session struct {
	Token     string
	AccountID string // empty for guest carts
	Payload   []byte // encoded cart collection
	UpdatedAt time.Time
}

// Store persists cart sessions.
type Store interface {
	Get(ctx context.Context, token string) (Session, error)
	Save(ctx context.Context, value Session) error
	Delete(ctx context.Context, token string) error
	// DeleteStale removes sessions not touched since the cutoff.
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}
