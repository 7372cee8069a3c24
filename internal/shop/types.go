package shop

import (
	"time"
)

// User mirrors the account payload returned by /api/auth/login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the account carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Account roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// CartItem is a line in the local cart. The cart never leaves the client
// except as part of an order.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Subtotal returns price × quantity.
func (c CartItem) Subtotal() float64 {
	return c.Price * float64(c.Quantity)
}

// Product mirrors a catalog entry.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
	Active      bool    `json:"active"`
}

// OrderLine is a single product line in an order.
type OrderLine struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order mirrors /api/orders entries.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Items     []OrderLine `json:"items"`
	Total     float64     `json:"total"`
	Status    string      `json:"status"`
	CreatedAt string      `json:"createdAt"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (o Order) ParsedCreatedAt() time.Time {
	return parseTime(o.CreatedAt)
}

// Order statuses understood by the storefront.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// InventoryItem is a stock record for one product at one location.
type InventoryItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Location  string `json:"location"`
	UpdatedAt string `json:"updatedAt"`
}

// ParsedUpdatedAt returns the parsed UpdatedAt timestamp.
func (i InventoryItem) ParsedUpdatedAt() time.Time {
	return parseTime(i.UpdatedAt)
}

// ListResponse wraps collection endpoints.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// LoginRequest is posted to /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the opaque bearer token and the account.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
