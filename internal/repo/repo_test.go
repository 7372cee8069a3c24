package repo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/stockroom/internal/mockshop"
	"github.com/five82/stockroom/internal/shop"
)

type fixture struct {
	server *mockshop.Server
	client *shop.Client
	repos  *Repos
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	server := mockshop.New().Seed()
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	client, err := shop.NewClient(ts.URL, shop.WithRetryPolicy(shop.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
	}))
	require.NoError(t, err)
	return &fixture{server: server, client: client, repos: New(client)}
}

func (f *fixture) login(t *testing.T, email, password string) shop.User {
	t.Helper()
	user, err := f.repos.Auth.Login(context.Background(), email, password)
	require.NoError(t, err)
	return user
}

func TestLoginStoresToken(t *testing.T) {
	f := newFixture(t)

	user := f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)
	assert.True(t, user.IsAdmin())
	assert.NotEmpty(t, f.client.Tokens().Token())

	f.repos.Auth.Logout(context.Background())
	assert.Empty(t, f.client.Tokens().Token())
}

func TestLoginRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.repos.Auth.Login(context.Background(), mockshop.AdminEmail, "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, err.Error(), "invalid email or password")
	assert.Equal(t, http.StatusUnauthorized, shop.StatusOf(err))
	assert.Empty(t, f.client.Tokens().Token())
}

func TestAdjustStockWritesAbsoluteQuantity(t *testing.T) {
	f := newFixture(t)
	f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)
	f.server.AddInventory(shop.InventoryItem{ID: "inv-x", ProductID: "p-100", Quantity: 10})

	item, err := f.repos.Inventory.AdjustStock(context.Background(), "inv-x", 4)
	require.NoError(t, err)
	assert.Equal(t, 14, item.Quantity)

	stored, ok := f.server.InventoryItem("inv-x")
	require.True(t, ok)
	assert.Equal(t, 14, stored.Quantity)
	assert.Equal(t, 1, f.server.Calls(http.MethodPut, "/api/inventory/inv-x"))
}

func TestAdjustStockBodyCarriesQuantityNotDelta(t *testing.T) {
	putBodies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":"inv-1","quantity":10}`))
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			putBodies <- string(body)
			_, _ = w.Write([]byte(`{"id":"inv-1","quantity":14}`))
		}
	}))
	defer srv.Close()
	client, err := shop.NewClient(srv.URL)
	require.NoError(t, err)

	_, err = New(client).Inventory.AdjustStock(context.Background(), "inv-1", 4)
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantity":14}`, <-putBodies)
}

func TestAdjustStockNegativeFailsLocally(t *testing.T) {
	f := newFixture(t)
	f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)
	// inv-200 is seeded with 3 units.

	_, err := f.repos.Inventory.AdjustStock(context.Background(), "inv-200", -5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeStock)

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "adjust stock", domainErr.Op)
	assert.Equal(t, -1, shop.StatusOf(err))

	assert.Equal(t, 0, f.server.Calls(http.MethodPut, "/api/inventory/inv-200"))
	stored, _ := f.server.InventoryItem("inv-200")
	assert.Equal(t, 3, stored.Quantity)
}

func TestAdjustStockToExactlyZero(t *testing.T) {
	f := newFixture(t)
	f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)

	item, err := f.repos.Inventory.AdjustStock(context.Background(), "inv-200", -3)
	require.NoError(t, err)
	assert.Equal(t, 0, item.Quantity)
}

func TestSetQuantityRejectsNegative(t *testing.T) {
	f := newFixture(t)
	f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)

	_, err := f.repos.Inventory.SetQuantity(context.Background(), "inv-200", -1)
	assert.ErrorIs(t, err, ErrNegativeStock)
	assert.Equal(t, 1, f.server.TotalCalls(), "only the login request reached the server")
}

func TestPermissionDenied(t *testing.T) {
	f := newFixture(t)
	f.login(t, mockshop.CustomerEmail, mockshop.CustomerPassword)

	_, err := f.repos.Inventory.AdjustStock(context.Background(), "inv-200", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, http.StatusForbidden, shop.StatusOf(err))
	assert.Contains(t, err.Error(), "you do not have permission to modify inventory item inv-200")
	// 403 is not retried.
	assert.Equal(t, 1, f.server.Calls(http.MethodGet, "/api/inventory/inv-200"))
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)

	_, err := f.repos.Products.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.repos.Inventory.AdjustStock(context.Background(), "nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOtherErrorsPassThrough(t *testing.T) {
	f := newFixture(t)
	f.server.FailNext(http.MethodGet, "/api/products", 500, 500, 500)

	_, err := f.repos.Products.List(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrPermissionDenied))

	var apiErr *shop.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, 3, f.server.Calls(http.MethodGet, "/api/products"))
}

func TestReadsRetryWritesDoNot(t *testing.T) {
	f := newFixture(t)
	f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)
	f.server.FailNext(http.MethodGet, "/api/inventory", 503)

	items, err := f.repos.Inventory.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, 2, f.server.Calls(http.MethodGet, "/api/inventory"))

	f.server.FailNext(http.MethodPut, "/api/inventory/inv-100", 503)
	_, err = f.repos.Inventory.SetQuantity(context.Background(), "inv-100", 5)
	require.Error(t, err)
	assert.Equal(t, 503, shop.StatusOf(err))
	assert.Equal(t, 1, f.server.Calls(http.MethodPut, "/api/inventory/inv-100"))
}

func TestBulkAdjust(t *testing.T) {
	f := newFixture(t)
	f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)

	res, err := f.repos.Inventory.BulkAdjust(context.Background(), []Adjustment{
		{ID: "inv-100", Delta: -10},
		{ID: "inv-200", Delta: -5},
		{ID: "inv-300", Delta: 2},
		{ID: "missing", Delta: 1},
	}, 2)
	require.NoError(t, err)
	require.Len(t, res.Results, 4)

	assert.True(t, res.Succeeded(0))
	assert.Equal(t, 30, res.Results[0].Quantity)
	assert.ErrorIs(t, res.Errors[1], ErrNegativeStock)
	assert.True(t, res.Succeeded(2))
	assert.Equal(t, 12, res.Results[2].Quantity)
	assert.ErrorIs(t, res.Errors[3], ErrNotFound)
	assert.Equal(t, 4, res.Completed())
	assert.True(t, res.HasErrors())
}

func TestProductsAndOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.login(t, mockshop.AdminEmail, mockshop.AdminPassword)

	created, err := f.repos.Products.Create(ctx, shop.Product{Name: "Patch", Price: 6, Active: true})
	require.NoError(t, err)
	created.Price = 7
	updated, err := f.repos.Products.Update(ctx, created)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, updated.Price, 1e-9)

	withImage, err := f.repos.Products.UploadImage(ctx, created.ID, "patch.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Contains(t, withImage.ImageURL, "patch.png")

	require.NoError(t, f.repos.Products.Delete(ctx, created.ID))
	_, err = f.repos.Products.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	order, err := f.repos.Orders.Create(ctx, []shop.CartItem{{ProductID: "p-300", Name: "Wool Beanie", Price: 24, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, shop.OrderPending, order.Status)

	shipped, err := f.repos.Orders.UpdateStatus(ctx, order.ID, shop.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, shop.OrderShipped, shipped.Status)

	got, err := f.repos.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, shop.OrderShipped, got.Status)

	orders, err := f.repos.Orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
