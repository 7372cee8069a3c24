package repo

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/five82/stockroom/internal/shop"
)

// API is the subset of *shop.Client the repositories use.
type API interface {
	Request(ctx context.Context, req shop.Request, dest any) error
	RequestWithRetry(ctx context.Context, req shop.Request, dest any) error
	Tokens() *shop.TokenStore
}

var _ API = (*shop.Client)(nil)

// Repos groups the storefront repositories over one client.
type Repos struct {
	Auth      *Auth
	Products  *Products
	Orders    *Orders
	Inventory *Inventory
}

// New builds all repositories.
func New(api API) *Repos {
	return &Repos{
		Auth:      &Auth{api: api},
		Products:  &Products{api: api},
		Orders:    &Orders{api: api},
		Inventory: &Inventory{api: api},
	}
}

func itemPath(collection, id string, suffix ...string) string {
	p := collection + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// Auth handles login and logout.
type Auth struct {
	api API
}

// Login exchanges credentials for a token, stores the token and returns the
// account.
func (a *Auth) Login(ctx context.Context, email, password string) (shop.User, error) {
	var resp shop.LoginResponse
	req := shop.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   shop.LoginRequest{Email: email, Password: password},
	}
	if err := a.api.Request(ctx, req, &resp); err != nil {
		return shop.User{}, translateLogin(err)
	}
	a.api.Tokens().SetToken(ctx, resp.Token)
	return resp.User, nil
}

// Logout forgets the token locally.
func (a *Auth) Logout(ctx context.Context) {
	a.api.Tokens().ClearToken(ctx)
}

func translateLogin(err error) error {
	switch shop.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &DomainError{Op: "login", Message: "invalid email or password", Kind: ErrPermissionDenied, Cause: err}
	default:
		return translate("login", "the session", err)
	}
}

// Products wraps /api/products.
type Products struct {
	api API
}

const productsPath = "/api/products"

func (p *Products) List(ctx context.Context) ([]shop.Product, error) {
	var resp shop.ListResponse[shop.Product]
	if err := p.api.RequestWithRetry(ctx, shop.Request{Path: productsPath}, &resp); err != nil {
		return nil, translate("list products", "the catalog", err)
	}
	return resp.Items, nil
}

func (p *Products) Get(ctx context.Context, id string) (shop.Product, error) {
	var out shop.Product
	if err := p.api.RequestWithRetry(ctx, shop.Request{Path: itemPath(productsPath, id)}, &out); err != nil {
		return shop.Product{}, translate("get product", "product "+id, err)
	}
	return out, nil
}

func (p *Products) Create(ctx context.Context, in shop.Product) (shop.Product, error) {
	var out shop.Product
	req := shop.Request{Method: http.MethodPost, Path: productsPath, Body: in}
	if err := p.api.Request(ctx, req, &out); err != nil {
		return shop.Product{}, translate("create product", "the catalog", err)
	}
	return out, nil
}

func (p *Products) Update(ctx context.Context, in shop.Product) (shop.Product, error) {
	var out shop.Product
	req := shop.Request{Method: http.MethodPut, Path: itemPath(productsPath, in.ID), Body: in}
	if err := p.api.Request(ctx, req, &out); err != nil {
		return shop.Product{}, translate("update product", "product "+in.ID, err)
	}
	return out, nil
}

func (p *Products) Delete(ctx context.Context, id string) error {
	req := shop.Request{Method: http.MethodDelete, Path: itemPath(productsPath, id)}
	if err := p.api.Request(ctx, req, nil); err != nil {
		return translate("delete product", "product "+id, err)
	}
	return nil
}

// UploadImage sends an image as multipart form field "image".
func (p *Products) UploadImage(ctx context.Context, id, filename string, image io.Reader) (shop.Product, error) {
	form, err := shop.NewMultipart(nil, shop.FilePart{Field: "image", Filename: filename, Content: image})
	if err != nil {
		return shop.Product{}, err
	}
	var out shop.Product
	req := shop.Request{Method: http.MethodPost, Path: itemPath(productsPath, id, "image"), Body: form}
	if err := p.api.Request(ctx, req, &out); err != nil {
		return shop.Product{}, translate("upload image", "product "+id, err)
	}
	return out, nil
}

// Orders wraps /api/orders.
type Orders struct {
	api API
}

const ordersPath = "/api/orders"

func (o *Orders) List(ctx context.Context) ([]shop.Order, error) {
	var resp shop.ListResponse[shop.Order]
	if err := o.api.RequestWithRetry(ctx, shop.Request{Path: ordersPath}, &resp); err != nil {
		return nil, translate("list orders", "orders", err)
	}
	return resp.Items, nil
}

func (o *Orders) Get(ctx context.Context, id string) (shop.Order, error) {
	var out shop.Order
	if err := o.api.RequestWithRetry(ctx, shop.Request{Path: itemPath(ordersPath, id)}, &out); err != nil {
		return shop.Order{}, translate("get order", "order "+id, err)
	}
	return out, nil
}

// Create places an order for the given cart lines.
func (o *Orders) Create(ctx context.Context, cart []shop.CartItem) (shop.Order, error) {
	lines := make([]shop.OrderLine, 0, len(cart))
	for _, c := range cart {
		lines = append(lines, shop.OrderLine{ProductID: c.ProductID, Quantity: c.Quantity, Price: c.Price})
	}
	var out shop.Order
	req := shop.Request{Method: http.MethodPost, Path: ordersPath, Body: map[string]any{"items": lines}}
	if err := o.api.Request(ctx, req, &out); err != nil {
		return shop.Order{}, translate("create order", "orders", err)
	}
	return out, nil
}

func (o *Orders) UpdateStatus(ctx context.Context, id, status string) (shop.Order, error) {
	var out shop.Order
	req := shop.Request{
		Method: http.MethodPut,
		Path:   itemPath(ordersPath, id, "status"),
		Body:   map[string]string{"status": status},
	}
	if err := o.api.Request(ctx, req, &out); err != nil {
		return shop.Order{}, translate("update order status", "order "+id, err)
	}
	return out, nil
}
