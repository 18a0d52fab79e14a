package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/redisclient/redistest"
	"storefront/internal/store/memstore"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = util.InitLogger("test")
}

type fixture struct {
	store    *memstore.Store
	cache    *redisclient.Client
	cart     *CartService
	checkout *CheckoutService
	orders   *OrderService
	products *ProductService
	contact  *ContactService
}

func newFixture(t *testing.T, publisher ChangePublisher) *fixture {
	t.Helper()
	st := memstore.New()
	cache, _ := redistest.NewClient(t)
	pricing := Pricing{
		FreeShippingThreshold: decimal.NewFromInt(5000),
		ShippingFee:           decimal.NewFromInt(250),
	}
	return &fixture{
		store:    st,
		cache:    cache,
		cart:     NewCartService(st, publisher),
		checkout: NewCheckoutService(st, cache, publisher, pricing, 30*time.Second, time.Hour),
		orders:   NewOrderService(st, publisher),
		products: NewProductService(st, publisher, 5),
		contact:  NewContactService(st, publisher),
	}
}

func (f *fixture) principal(t *testing.T, role string) *models.Principal {
	t.Helper()
	u := &models.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@example.com",
		FullName: "Test User",
		Role:     role,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return &models.Principal{UserID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

func (f *fixture) customer(t *testing.T) *models.Principal {
	return f.principal(t, models.RoleCustomer)
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "general",
		Quantity: stock,
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return p
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
