package mockshop

import (
	"strings"
	"time"

	"github.com/five82/stockroom/internal/shop"
)

// Demo credentials loaded by Seed.
const (
	AdminEmail       = "admin@stockroom.test"
	AdminPassword    = "admin"
	CustomerEmail    = "customer@stockroom.test"
	CustomerPassword = "customer"
)

// AddAccount registers a login. Emails are matched case-insensitively.
func (s *Server) AddAccount(u shop.User, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(u.Email)] = Account{User: u, Password: password}
}

// AddProduct stores p as-is, replacing any product with the same ID.
func (s *Server) AddProduct(p shop.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddInventory stores item as-is, replacing any record with the same ID.
func (s *Server) AddInventory(item shop.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.UpdatedAt == "" {
		item.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	}
	s.inventory[item.ID] = item
}

// AddOrder stores o as-is.
func (s *Server) AddOrder(o shop.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

// InventoryItem returns the stored record for id.
func (s *Server) InventoryItem(id string) (shop.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.inventory[id]
	return item, ok
}

// Image returns the bytes uploaded for a product.
func (s *Server) Image(productID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.images[productID]
	return data, ok
}

// Seed loads two accounts and a small catalog with stock.
func (s *Server) Seed() *Server {
	s.AddAccount(shop.User{ID: "u-admin", Email: AdminEmail, Name: "Store Admin", Role: shop.RoleAdmin}, AdminPassword)
	s.AddAccount(shop.User{ID: "u-cust", Email: CustomerEmail, Name: "Casey Customer", Role: shop.RoleCustomer}, CustomerPassword)

	catalog := []struct {
		product  shop.Product
		sku      string
		quantity int
	}{
		{shop.Product{ID: "p-100", Name: "Canvas Tote", Price: 18.5, Category: "bags", Active: true}, "TOTE-NAT", 40},
		{shop.Product{ID: "p-200", Name: "Enamel Mug", Price: 12, Category: "kitchen", Active: true}, "MUG-WHT", 3},
		{shop.Product{ID: "p-300", Name: "Wool Beanie", Price: 24, Category: "apparel", Active: true}, "BEANIE-GRY", 10},
		{shop.Product{ID: "p-400", Name: "Sticker Pack", Price: 4.25, Category: "misc", Active: false}, "STK-5", 0},
	}
	for i, c := range catalog {
		s.AddProduct(c.product)
		s.AddInventory(shop.InventoryItem{
			ID:        "inv-" + strings.TrimPrefix(c.product.ID, "p-"),
			ProductID: c.product.ID,
			SKU:       c.sku,
			Quantity:  c.quantity,
			Location:  []string{"A1", "B2"}[i%2],
		})
	}

	s.AddOrder(shop.Order{
		ID:        "ord-seed",
		UserID:    "u-cust",
		Items:     []shop.OrderLine{{ProductID: "p-100", Quantity: 2, Price: 18.5}},
		Total:     37,
		Status:    shop.OrderPaid,
		CreatedAt: s.now().UTC().Add(-24 * time.Hour).Format(time.RFC3339),
	})
	return s
}
