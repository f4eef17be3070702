package cartsession

import (
	"context"
	"time"
)

// Persistence scopes the session store to one cart token so it can serve
// as the cart engine's storage boundary. The engine's fixed key is
// ignored; the token identifies the row.
type Persistence struct {
	store     Store
	token     string
	accountID string
}

// NewPersistence creates a persistence boundary for one cart token.
// PRE: store is non-nil, token is non-empty
func NewPersistence(store Store, token, accountID string) *Persistence {
	return &Persistence{store: store, token: token, accountID: accountID}
}

// Load returns the encoded cart for the token. A missing session is not
// an error; it reads as an empty payload.
func (p *Persistence) Load(_ string) ([]byte, error) {
	sess, err := p.store.Get(context.Background(), p.token)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess.Payload, nil
}

// Save writes the encoded cart for the token.
func (p *Persistence) Save(_ string, data []byte) error {
	return p.store.Save(context.Background(), Session{
		Token:     p.token,
		AccountID: p.accountID,
		Payload:   data,
		UpdatedAt: time.Now(),
	})
}
