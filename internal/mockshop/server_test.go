package mockshop

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/stockroom/internal/shop"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts...).Seed()
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func login(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	resp, body := do(t, ts, http.MethodPost, "/api/auth/login", "", shop.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var lr shop.LoginResponse
	require.NoError(t, json.Unmarshal(body, &lr))
	require.NotEmpty(t, lr.Token)
	return lr.Token
}

func TestLogin(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodPost, "/api/auth/login", "", shop.LoginRequest{Email: "ADMIN@stockroom.test", Password: AdminPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lr shop.LoginResponse
	require.NoError(t, json.Unmarshal(body, &lr))
	assert.Equal(t, shop.RoleAdmin, lr.User.Role)

	resp, body = do(t, ts, http.MethodPost, "/api/auth/login", "", shop.LoginRequest{Email: AdminEmail, Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), `"message"`)
}

func TestAuthRequired(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := do(t, ts, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodGet, "/api/orders", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Products are public.
	resp, _ = do(t, ts, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExpiredToken(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var skew atomic.Int64
	_, ts := newTestServer(t, WithClock(func() time.Time { return base.Add(time.Duration(skew.Load())) }))
	token := login(t, ts, CustomerEmail, CustomerPassword)

	skew.Store(int64(tokenTTL + time.Minute))
	resp, _ := do(t, ts, http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts, CustomerEmail, CustomerPassword)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/inventory"},
		{http.MethodPut, "/api/inventory/inv-200"},
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/orders/ord-seed/status"},
	} {
		resp, _ := do(t, ts, tc.method, tc.path, token, map[string]int{"quantity": 1})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestInventoryWrites(t *testing.T) {
	s, ts := newTestServer(t)
	token := login(t, ts, AdminEmail, AdminPassword)

	resp, body := do(t, ts, http.MethodPut, "/api/inventory/inv-200", token, map[string]int{"quantity": 9})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	item, ok := s.InventoryItem("inv-200")
	require.True(t, ok)
	assert.Equal(t, 9, item.Quantity)

	resp, _ = do(t, ts, http.MethodPut, "/api/inventory/inv-200", token, map[string]int{"quantity": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodPut, "/api/inventory/inv-200", token, map[string]int{"delta": 2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodGet, "/api/inventory/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOrdersScopedToCustomer(t *testing.T) {
	s, ts := newTestServer(t)
	s.AddAccount(shop.User{ID: "u-other", Email: "other@stockroom.test", Role: shop.RoleCustomer}, "pw")

	other := login(t, ts, "other@stockroom.test", "pw")
	resp, body := do(t, ts, http.MethodGet, "/api/orders", other, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list shop.ListResponse[shop.Order]
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Empty(t, list.Items)

	resp, _ = do(t, ts, http.MethodGet, "/api/orders/ord-seed", other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	owner := login(t, ts, CustomerEmail, CustomerPassword)
	resp, _ = do(t, ts, http.MethodGet, "/api/orders/ord-seed", owner, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts, CustomerEmail, CustomerPassword)

	resp, body := do(t, ts, http.MethodPost, "/api/orders", token, map[string]any{
		"items": []shop.OrderLine{{ProductID: "p-200", Quantity: 2, Price: 0.01}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var order shop.Order
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, "u-cust", order.UserID)
	assert.Equal(t, shop.OrderPending, order.Status)
	assert.InDelta(t, 24.0, order.Total, 1e-9)
	assert.False(t, order.ParsedCreatedAt().IsZero())

	resp, _ = do(t, ts, http.MethodPost, "/api/orders", token, map[string]any{"items": []shop.OrderLine{}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpdateOrderStatus(t *testing.T) {
	_, ts := newTestServer(t)
	token := login(t, ts, AdminEmail, AdminPassword)

	resp, body := do(t, ts, http.MethodPut, "/api/orders/ord-seed/status", token, map[string]string{"status": shop.OrderShipped})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var order shop.Order
	require.NoError(t, json.Unmarshal(body, &order))
	assert.Equal(t, shop.OrderShipped, order.Status)

	resp, _ = do(t, ts, http.MethodPut, "/api/orders/ord-seed/status", token, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	s, ts := newTestServer(t)
	token := login(t, ts, AdminEmail, AdminPassword)

	resp, body := do(t, ts, http.MethodPost, "/api/products", token, shop.Product{Name: "Poster", Price: 9})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created shop.Product
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "poster.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/products/"+created.ID+"/image", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	imgResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = imgResp.Body.Close()
	require.Equal(t, http.StatusOK, imgResp.StatusCode)
	data, ok := s.Image(created.ID)
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(data))

	resp, _ = do(t, ts, http.MethodDelete, "/api/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodGet, "/api/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFailNextAndCalls(t *testing.T) {
	s, ts := newTestServer(t)
	s.FailNext(http.MethodGet, "/api/products", http.StatusServiceUnavailable, http.StatusBadGateway)

	resp, _ := do(t, ts, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 3, s.Calls(http.MethodGet, "/api/products"))
	assert.Equal(t, 0, s.Calls(http.MethodPut, "/api/products"))
	assert.Equal(t, 3, s.TotalCalls())
}
