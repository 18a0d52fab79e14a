package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/realtime"
	"storefront/internal/redisclient/redistest"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/store/memstore"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = util.InitLogger("test")
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Manager
	store    *memstore.Store
	hub      *realtime.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := memstore.New()
	cache, _ := redistest.NewClient(t)
	sessions := session.NewManager(st, cache, session.NewTokenIssuer("test-secret", time.Hour), time.Minute)
	hub := realtime.NewHub(8)
	pricing := service.Pricing{
		FreeShippingThreshold: decimal.NewFromInt(5000),
		ShippingFee:           decimal.NewFromInt(250),
	}

	h := NewHandler(Deps{
		Sessions:  sessions,
		Products:  service.NewProductService(st, nil, 5),
		Cart:      service.NewCartService(st, nil),
		Checkout:  service.NewCheckoutService(st, cache, nil, pricing, 30*time.Second, time.Hour),
		Orders:    service.NewOrderService(st, nil),
		Contact:   service.NewContactService(st, nil),
		Hub:       hub,
		Readiness: map[string]Pinger{"store": st, "redis": cache},
	})

	router := gin.New()
	h.SetupRoutes(router)
	return &testServer{router: router, sessions: sessions, store: st, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) signIn(t *testing.T, role string) string {
	t.Helper()
	ctx := context.Background()
	email := fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano())

	var err error
	if role == models.RoleAdmin {
		_, err = s.sessions.CreateAdmin(ctx, email, "password", role)
	} else {
		_, err = s.sessions.Register(ctx, email, "password", role)
	}
	require.NoError(t, err)

	token, _, err := s.sessions.SignIn(ctx, email, "password")
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil).Code)

	w := s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"ok"`)
	assert.Contains(t, w.Body.String(), `"redis":"ok"`)
}

func TestAdminRoutesAreRoleGated(t *testing.T) {
	s := newTestServer(t)
	customer := s.signIn(t, models.RoleCustomer)
	admin := s.signIn(t, models.RoleAdmin)

	paths := []string{"/api/v1/admin/orders", "/api/v1/admin/messages"}
	for _, path := range paths {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, path, "", nil).Code, path)
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, path, "garbage", nil).Code, path)
		assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, path, customer, nil).Code, path)
		assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, admin, nil).Code, path)
	}
}

func TestAuthenticatedRoutesRejectAnonymous(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/cart", "/api/v1/checkout", "/api/v1/orders", "/api/v1/auth/me"} {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, path, "", nil).Code, path)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	s := newTestServer(t)
	token := s.signIn(t, models.RoleCustomer)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil).Code)
}

func TestRegisterAndLoginOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "new@example.com", "password": "password", "full_name": "New",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "new@example.com", "password": "password",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "new@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "new@example.com", "password": "password",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string           `json:"token"`
		User  models.Principal `json:"user"`
	}
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleCustomer, resp.User.Role)
}

func TestCartToOrderScenario(t *testing.T) {
	s := newTestServer(t)
	admin := s.signIn(t, models.RoleAdmin)
	customer := s.signIn(t, models.RoleCustomer)

	w := s.do(t, http.MethodPost, "/api/v1/admin/products", admin, gin.H{
		"name": "P", "price": "1000", "category": "general", "quantity": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product models.Product
	decode(t, w, &product)

	for i := 0; i < 2; i++ {
		w = s.do(t, http.MethodPost, "/api/v1/cart/items", customer, gin.H{"product_id": product.ID, "quantity": 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	var cart service.CartView
	decode(t, w, &cart)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)

	w = s.do(t, http.MethodGet, "/api/v1/checkout", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var quote service.Quote
	decode(t, w, &quote)
	assert.True(t, decimal.NewFromInt(2250).Equal(quote.Total))

	w = s.do(t, http.MethodPost, "/api/v1/checkout", customer, gin.H{"customer_name": "Ann"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/checkout", customer, gin.H{
		"customer_name": "Ann", "email": "ann@example.com", "address": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	decode(t, w, &order)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, decimal.NewFromInt(2000).Equal(order.Subtotal))
	assert.True(t, decimal.NewFromInt(250).Equal(order.ShippingFee))
	assert.True(t, decimal.NewFromInt(2250).Equal(order.TotalPrice))

	w = s.do(t, http.MethodGet, "/api/v1/cart", customer, nil)
	decode(t, w, &cart)
	assert.Empty(t, cart.Lines)

	w = s.do(t, http.MethodPost, "/api/v1/checkout", customer, gin.H{
		"customer_name": "Ann", "email": "ann@example.com", "address": "1 Main St",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var mine []models.Order
	decode(t, s.do(t, http.MethodGet, "/api/v1/orders", customer, nil), &mine)
	assert.Len(t, mine, 1)

	orderPath := fmt.Sprintf("/api/v1/admin/orders/%d", order.ID)
	assert.Equal(t, http.StatusUnprocessableEntity,
		s.do(t, http.MethodPut, orderPath+"/status", admin, gin.H{"status": "delivered"}).Code)
	assert.Equal(t, http.StatusOK,
		s.do(t, http.MethodPost, orderPath+"/advance", admin, gin.H{"from": "pending"}).Code)
	assert.Equal(t, http.StatusConflict,
		s.do(t, http.MethodPost, orderPath+"/advance", admin, gin.H{"from": "pending"}).Code)
	assert.Equal(t, http.StatusOK,
		s.do(t, http.MethodPut, orderPath+"/status", admin, gin.H{"status": "delivered"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		s.do(t, http.MethodPost, orderPath+"/advance", admin, gin.H{"from": "delivered"}).Code)
}

func TestCartStepsReportChanged(t *testing.T) {
	s := newTestServer(t)
	admin := s.signIn(t, models.RoleAdmin)
	customer := s.signIn(t, models.RoleCustomer)

	var product models.Product
	decode(t, s.do(t, http.MethodPost, "/api/v1/admin/products", admin, gin.H{
		"name": "Q", "price": "5", "category": "general", "quantity": "1",
	}), &product)

	var cart service.CartView
	decode(t, s.do(t, http.MethodPost, "/api/v1/cart/items", customer, gin.H{"product_id": product.ID}), &cart)
	require.Len(t, cart.Lines, 1)

	path := fmt.Sprintf("/api/v1/cart/items/%d/increment", cart.Lines[0].ID)
	w := s.do(t, http.MethodPost, path, customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var step struct {
		Cart    service.CartView `json:"cart"`
		Changed bool             `json:"changed"`
	}
	decode(t, w, &step)
	assert.False(t, step.Changed)
	assert.Equal(t, 1, step.Cart.Lines[0].Quantity)

	other := s.signIn(t, models.RoleCustomer)
	assert.Equal(t, http.StatusNotFound,
		s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/cart/items/%d", cart.Lines[0].ID), other, nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		s.do(t, http.MethodDelete, "/api/v1/cart/items/abc", customer, nil).Code)
	assert.Equal(t, http.StatusOK,
		s.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/cart/items/%d", cart.Lines[0].ID), customer, nil).Code)
}

func TestCatalogAndContact(t *testing.T) {
	s := newTestServer(t)
	admin := s.signIn(t, models.RoleAdmin)

	w := s.do(t, http.MethodPost, "/api/v1/admin/products", admin, gin.H{
		"name": "Lamp", "price": "abc", "category": "Lighting", "quantity": "2",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/admin/products", admin, gin.H{
		"name": "Lamp", "price": "40", "category": "Lighting", "quantity": "2",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var products []models.Product
	decode(t, s.do(t, http.MethodGet, "/api/v1/products?category=lighting&q=lam", "", nil), &products)
	require.Len(t, products, 1)
	assert.True(t, products[0].LowStock)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/products/999", "", nil).Code)

	w = s.do(t, http.MethodPost, "/api/v1/contact", "", gin.H{"name": "A", "email": "a@example.com", "subject": "Hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/contact", "", gin.H{
		"name": "A", "email": "a@example.com", "subject": "Hi", "message": "Hello",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var msg models.ContactMessage
	decode(t, w, &msg)

	path := fmt.Sprintf("/api/v1/admin/messages/%d", msg.ID)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, admin, nil).Code)
}
