// Package cart owns the authoritative cart state. All reads and writes
// go through Store; every committed mutation is persisted to the
// configured key-value store and broadcast to subscribers.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/DavidEng0805/web-final-re-exam/internal/domain"
	"github.com/DavidEng0805/web-final-re-exam/internal/kv"
)

// Subscriber receives the full cart snapshot after every committed
// mutation, and once immediately on subscription. Callbacks run
// synchronously in commit order and must not call back into the Store.
type Subscriber func(domain.Snapshot)

type subscription struct {
	id int
	fn Subscriber
}

// Store is the sole owner of the cart's line items. It is explicitly
// constructed and passed to whatever needs it; one Store per session.
// All operations are serialized behind a single mutex.
type Store struct {
	mu     sync.Mutex
	items  []domain.LineItem
	kv     kv.Store
	key    string
	subs   []subscription
	nextID int
}

// NewStore seeds the cart from the persisted value under key. A missing,
// unreadable, or corrupt value falls back to an empty cart; seeding
// never fails.
func NewStore(ctx context.Context, store kv.Store, key string) *Store {
	s := &Store{kv: store, key: key}
	s.items = load(ctx, store, key)
	return s
}

func load(ctx context.Context, store kv.Store, key string) []domain.LineItem {
	data, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Printf("cart: reading persisted cart failed, starting empty: %v", err)
		}
		return []domain.LineItem{}
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("cart: persisted cart is corrupt, starting empty: %v", err)
		return []domain.LineItem{}
	}

	// A persisted item with qty <= 0 should never exist; drop any found.
	kept := items[:0]
	for _, item := range items {
		if item.Qty > 0 {
			kept = append(kept, item)
		}
	}
	return kept
}

// Snapshot returns the current line items in insertion order. The
// returned slice is a copy; mutating it does not affect the cart.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.Snapshot {
	snap := make(domain.Snapshot, len(s.items))
	copy(snap, s.items)
	return snap
}

// Add puts one unit of p into the cart: an existing line item with the
// same id has its quantity incremented, otherwise a new line item with
// qty 1 is appended. The product is stored as-is, without validation.
func (s *Store) Add(ctx context.Context, p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == p.ID {
			s.items[i].Qty++
			s.commit(ctx)
			return
		}
	}
	s.items = append(s.items, domain.LineItem{Product: p, Qty: 1})
	s.commit(ctx)
}

// ChangeQty adds delta to the quantity of the line item with the given
// id. Unknown ids are a no-op. A resulting quantity <= 0 removes the
// item entirely.
func (s *Store) ChangeQty(ctx context.Context, id int64, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		s.items[i].Qty += delta
		if s.items[i].Qty <= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
		s.commit(ctx)
		return
	}
}

// Remove deletes the line item with the given id if present.
func (s *Store) Remove(ctx context.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.commit(ctx)
}

// Clear empties the cart entirely.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []domain.LineItem{}
	s.commit(ctx)
}

// Subscribe registers fn and immediately delivers the current snapshot
// to it. Afterwards fn receives every committed snapshot in commit
// order. The returned func unsubscribes; it is safe to call more than
// once.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	deliver(fn, s.snapshotLocked())

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Close drops all subscribers. The store remains readable afterwards;
// further mutations no longer notify anyone.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = nil
}

// commit persists the cart and fans the new snapshot out to all
// subscribers. A persistence failure is logged and swallowed: the
// in-memory state stays authoritative for the session, and subscribers
// are notified regardless. Callers must hold s.mu.
func (s *Store) commit(ctx context.Context) {
	data, err := json.Marshal(s.items)
	if err != nil {
		log.Printf("cart: marshal failed: %v", err)
	} else if err := s.kv.Set(ctx, s.key, data); err != nil {
		log.Printf("cart: persisting cart failed: %v", err)
	}

	for _, sub := range s.subs {
		// Each subscriber gets its own copy so none can corrupt what
		// the others see.
		deliver(sub.fn, s.snapshotLocked())
	}
}

// deliver invokes one subscriber, isolating panics so a broken
// subscriber cannot block the others or corrupt store state.
func deliver(fn Subscriber, snap domain.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("cart: subscriber panicked: %v", r)
		}
	}()
	fn(snap)
}
