package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Suministros-api/internal/application/reservation"
)

var _ reservation.CartStore = (*CartStore)(nil)

// CartStore guarda los carritos en memoria de proceso.
type CartStore struct {
	mu    sync.Mutex
	carts map[reservation.CartKey]map[string]int
}

// NewCartStore crea un almacén de carritos vacío.
func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[reservation.CartKey]map[string]int)}
}

func (s *CartStore) Reserve(_ context.Context, key reservation.CartKey, productID string, delta, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cart(key)
	current := cart[productID]
	if current+delta > limit {
		return current, false, nil
	}
	cart[productID] = current + delta
	return cart[productID], true, nil
}

func (s *CartStore) Set(_ context.Context, key reservation.CartKey, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qty <= 0 {
		delete(s.cart(key), productID)
		return nil
	}
	s.cart(key)[productID] = qty
	return nil
}

func (s *CartStore) Remove(_ context.Context, key reservation.CartKey, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cart(key), productID)
	return nil
}

func (s *CartStore) Items(_ context.Context, key reservation.CartKey) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.carts[key]))
	for id, q := range s.carts[key] {
		out[id] = q
	}
	return out, nil
}

func (s *CartStore) Clear(_ context.Context, key reservation.CartKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, key)
	return nil
}

func (s *CartStore) cart(key reservation.CartKey) map[string]int {
	c, ok := s.carts[key]
	if !ok {
		c = make(map[string]int)
		s.carts[key] = c
	}
	return c
}
