package order

import (
	"sync"

	"github.com/dkhalitov/pos-terminal-sync/internal/model"
)

// ActiveStore holds every non-terminal order in memory behind one
// mutex.  Mutations go through Mutate so that read-modify-write cycles
// on a single order are serialized; the database keeps the durable copy
// including orders that have reached a terminal state.
type ActiveStore struct {
	mu     sync.Mutex
	orders map[int]*model.Order
}

// NewActiveStore returns an empty store, optionally seeded with the
// active orders loaded from the database at startup.
func NewActiveStore(seed []model.Order) *ActiveStore {
	s := &ActiveStore{orders: make(map[int]*model.Order, len(seed))}
	for i := range seed {
		o := seed[i]
		s.orders[o.ID] = &o
	}
	return s
}

// Put adds a freshly created order.
func (s *ActiveStore) Put(o *model.Order) {
	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()
}

// Get returns a copy of one order, or false when it is not active.
func (s *ActiveStore) Get(id int) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, false
	}
	return cloneOrder(o), true
}

// Mutate runs fn against the live order under the store lock.  If fn
// returns an error the order is left untouched; if fn drives the order
// into a terminal state it is dropped from the active set (the database
// record remains for audit).  The returned copy reflects the order
// after fn ran.
func (s *ActiveStore) Mutate(id int, fn func(o *model.Order) error) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return model.Order{}, ErrNotActive
	}
	backup := cloneOrder(o)
	if err := fn(o); err != nil {
		*o = backup
		return model.Order{}, err
	}
	out := cloneOrder(o)
	if IsTerminal(o) {
		delete(s.orders, id)
	}
	return out, nil
}

// Snapshot returns copies of every active order.
func (s *ActiveStore) Snapshot() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, cloneOrder(o))
	}
	return out
}

func cloneOrder(o *model.Order) model.Order {
	c := *o
	c.Items = make([]model.OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return c
}
