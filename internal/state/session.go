package state

import (
	"slices"
	"time"

	"github.com/five82/stockroom/internal/shop"
)

// User returns a copy of the current user, nil when logged out.
func (s *Store) User() *shop.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// IsLoggedIn reports whether a user is present.
func (s *Store) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User != nil
}

// IsAdmin reports the admin flag.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAdmin
}

// LastSync returns when the scheduler last completed a successful tick.
func (s *Store) LastSync() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastSync
}

// SetUser stores the user and derives the admin flag from its role. A nil
// user logs out without clearing the cart; use Reset for a full logout.
func (s *Store) SetUser(u *shop.User) {
	_ = s.Set(KeyUser, u)
	_ = s.Set(KeyIsAdmin, u != nil && u.IsAdmin())
}

// SetProducts replaces the cached catalog.
func (s *Store) SetProducts(items []shop.Product) {
	_ = s.Set(KeyProducts, items)
}

// SetOrders replaces the cached orders.
func (s *Store) SetOrders(items []shop.Order) {
	_ = s.Set(KeyOrders, items)
}

// SetInventory replaces the cached inventory.
func (s *Store) SetInventory(items []shop.InventoryItem) {
	_ = s.Set(KeyInventory, items)
}

// SetLastSync stamps the global sync time.
func (s *Store) SetLastSync(t time.Time) {
	_ = s.Set(KeyLastSync, t)
}

// Cart returns a copy of the cart lines.
func (s *Store) Cart() []shop.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.Cart)
}

// AddToCart adds quantity of product, merging with an existing line.
// Non-positive quantities are ignored.
func (s *Store) AddToCart(p shop.Product, quantity int) {
	if quantity <= 0 {
		return
	}
	cart := s.Cart()
	idx := slices.IndexFunc(cart, func(c shop.CartItem) bool { return c.ProductID == p.ID })
	if idx >= 0 {
		cart[idx].Quantity += quantity
	} else {
		cart = append(cart, shop.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  quantity,
		})
	}
	_ = s.Set(KeyCart, cart)
}

// UpdateCartQuantity sets a line's quantity; zero or less removes it.
func (s *Store) UpdateCartQuantity(productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveFromCart(productID)
		return
	}
	cart := s.Cart()
	idx := slices.IndexFunc(cart, func(c shop.CartItem) bool { return c.ProductID == productID })
	if idx < 0 {
		return
	}
	cart[idx].Quantity = quantity
	_ = s.Set(KeyCart, cart)
}

// RemoveFromCart drops the line for productID.
func (s *Store) RemoveFromCart(productID string) {
	cart := s.Cart()
	before := len(cart)
	cart = slices.DeleteFunc(cart, func(c shop.CartItem) bool { return c.ProductID == productID })
	if len(cart) == before {
		return
	}
	_ = s.Set(KeyCart, cart)
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	_ = s.Set(KeyCart, []shop.CartItem(nil))
}

// CartTotal sums line subtotals.
func (s *Store) CartTotal() float64 {
	total := 0.0
	for _, item := range s.Cart() {
		total += item.Subtotal()
	}
	return total
}

// CartCount sums line quantities.
func (s *Store) CartCount() int {
	n := 0
	for _, item := range s.Cart() {
		n += item.Quantity
	}
	return n
}
