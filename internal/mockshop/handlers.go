package mockshop

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/five82/stockroom/internal/shop"
)

const maxImageBytes = 4 << 20

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req shop.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	account, ok := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	s.mu.Unlock()
	if !ok || account.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := s.signToken(account.User)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign token")
		return
	}
	writeJSON(w, http.StatusOK, shop.LoginResponse{Token: token, User: account.User})
}

func (s *Server) handleListProducts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.products, func(p shop.Product) string { return p.ID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, shop.ListResponse[shop.Product]{Items: items})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	p, ok := s.products[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p shop.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(p.Name) == "" || p.Price < 0 {
		writeError(w, http.StatusUnprocessableEntity, "name is required and price must not be negative")
		return
	}
	s.mu.Lock()
	p.ID = s.nextID("prod")
	s.products[p.ID] = p
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p shop.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[id]
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	p.ID = id
	if p.ImageURL == "" {
		p.ImageURL = existing.ImageURL
	}
	s.products[id] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	delete(s.products, id)
	delete(s.images, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	s.images[id] = data
	p.ImageURL = fmt.Sprintf("/images/%s/%s", id, header.Filename)
	s.products[id] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	s.mu.Lock()
	items := sortedValues(s.orders, func(o shop.Order) string { return o.ID })
	s.mu.Unlock()
	if !user.IsAdmin() {
		items = slices.DeleteFunc(items, func(o shop.Order) bool { return o.UserID != user.ID })
	}
	writeJSON(w, http.StatusOK, shop.ListResponse[shop.Order]{Items: items})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	o, ok := s.orders[id]
	s.mu.Unlock()
	// Other customers' orders are reported as missing.
	if !ok || (!user.IsAdmin() && o.UserID != user.ID) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []shop.OrderLine `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "order has no items")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order := shop.Order{
		UserID:    userFromContext(r.Context()).ID,
		Status:    shop.OrderPending,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	for _, line := range req.Items {
		p, ok := s.products[line.ProductID]
		if !ok || line.Quantity <= 0 {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid line for product %q", line.ProductID))
			return
		}
		line.Price = p.Price
		order.Items = append(order.Items, line)
		order.Total += p.Price * float64(line.Quantity)
	}
	order.ID = s.nextID("ord")
	s.orders[order.ID] = order
	writeJSON(w, http.StatusCreated, order)
}

var orderStatuses = []string{
	shop.OrderPending, shop.OrderPaid, shop.OrderShipped, shop.OrderDelivered, shop.OrderCancelled,
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !slices.Contains(orderStatuses, req.Status) {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown status %q", req.Status))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	o.Status = req.Status
	s.orders[id] = o
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleListInventory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := sortedValues(s.inventory, func(i shop.InventoryItem) string { return i.ID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, shop.ListResponse[shop.InventoryItem]{Items: items})
}

func (s *Server) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	item, ok := s.inventory[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleSetInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		writeError(w, http.StatusUnprocessableEntity, "quantity must be a non-negative integer")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.inventory[id]
	if !ok {
		writeError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	item.Quantity = *req.Quantity
	item.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	s.inventory[id] = item
	writeJSON(w, http.StatusOK, item)
}

// nextID must be called with s.mu held.
func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

func sortedValues[T any](m map[string]T, id func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return strings.Compare(id(a), id(b)) })
	return out
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
