// Package cartstore holds the stateful shopping cart engine: an in-memory
// cart backed by a persistence boundary, with change notifications for
// anything that renders cart state.
package cartstore

import (
	"log/slog"
	"sync"

	"bagsberry/internal/domain/cart"
)

// StorageKey is the fixed key carts are persisted under per session.
const StorageKey = "cart"

// Persistence is the boundary the engine saves through. Implementations
// must tolerate concurrent calls.
type Persistence interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// Subscriber receives a snapshot of the cart after every mutation.
type Subscriber func(c cart.Cart)

// Store wraps a cart with persistence and change notifications. Reads
// before Hydrate observe an empty cart; mutations before Hydrate are
// applied in memory but not persisted, so a later Hydrate can still
// merge the stored collection underneath them.
type Store struct {
	mu          sync.Mutex
	cart        cart.Cart
	persistence Persistence
	hydrated    bool
	subscribers map[int]Subscriber
	nextSubID   int
	logger      *slog.Logger
}

// New creates a Store over the given persistence boundary.
// PRE: p is non-nil
// POST: Store is unhydrated with an empty cart
func New(p Persistence, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		persistence: p,
		subscribers: make(map[int]Subscriber),
		logger:      logger,
	}
}

// Hydrate loads the persisted cart and marks the store ready. A missing,
// empty or corrupt payload yields an empty cart; mutations applied before
// hydration are merged on top of the stored items.
// PRE: Store exists
// POST: Hydrated() is true; subscribers notified
func (s *Store) Hydrate() {
	s.mu.Lock()
	data, err := s.persistence.Load(StorageKey)
	if err != nil {
		s.logger.Warn("cart_load_failed", "error", err)
		data = nil
	}
	stored := cart.Decode(data)
	for _, item := range s.cart.Items {
		stored.AddItem(item)
	}
	s.cart = stored
	s.hydrated = true
	s.persistLocked()
	snapshot := s.cart
	subs := s.subscriberList()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Hydrated reports whether the persisted cart has been loaded.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Snapshot returns a copy of the current cart.
// INVARIANT: callers cannot mutate the store through the returned value
func (s *Store) Snapshot() cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cart
	c.Items = append([]cart.LineItem(nil), s.cart.Items...)
	return c
}

// Total returns the derived cart total.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// ItemCount returns the summed quantity across all line items.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// AddItem merges an item into the cart and persists the result.
// PRE: qty > 0 for the mutation to take effect
// POST: cart persisted, subscribers notified
func (s *Store) AddItem(item cart.LineItem, qty int) {
	item.Quantity = qty
	s.mutate(func(c *cart.Cart) { c.AddItem(item) })
}

// UpdateQuantity sets an item's quantity; qty <= 0 removes the item.
// POST: cart persisted, subscribers notified
func (s *Store) UpdateQuantity(productID string, qty int) {
	s.mutate(func(c *cart.Cart) { c.UpdateQuantity(productID, qty) })
}

// RemoveItem removes an item from the cart.
// POST: cart persisted, subscribers notified
func (s *Store) RemoveItem(productID string) {
	s.mutate(func(c *cart.Cart) { c.RemoveItem(productID) })
}

// Clear empties the cart.
// POST: cart persisted, subscribers notified
func (s *Store) Clear() {
	s.mutate(func(c *cart.Cart) { c.Clear() })
}

// Subscribe registers a change listener and returns an unsubscribe func.
// The listener is invoked synchronously after every mutation and after
// hydration. Unsubscribing twice is a no-op.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// mutate applies fn to the cart, persists when hydrated, and notifies
// subscribers outside the lock. In-memory state stays authoritative when
// persistence fails.
func (s *Store) mutate(fn func(*cart.Cart)) {
	s.mu.Lock()
	fn(&s.cart)
	if s.hydrated {
		s.persistLocked()
	}
	snapshot := s.cart
	snapshot.Items = append([]cart.LineItem(nil), s.cart.Items...)
	subs := s.subscriberList()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// persistLocked writes the full collection; failures are logged and
// swallowed. Caller must hold mu.
func (s *Store) persistLocked() {
	if err := s.persistence.Save(StorageKey, s.cart.Encode()); err != nil {
		s.logger.Warn("cart_save_failed", "error", err, "items", len(s.cart.Items))
	}
}

// subscriberList returns subscribers in registration order. Caller must
// hold mu.
func (s *Store) subscriberList() []Subscriber {
	out := make([]Subscriber, 0, len(s.subscribers))
	for i := 0; i < s.nextSubID; i++ {
		if fn, ok := s.subscribers[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}
