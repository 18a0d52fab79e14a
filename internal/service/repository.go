package service

import (
	"context"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// ProductRepository is the product table
type ProductRepository interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// CartRepository is the cart table joined with products
type CartRepository interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartLineView, error)
	GetCartLineByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*models.CartLine, error)
	CreateCartLine(ctx context.Context, line *models.CartLine) error
	UpdateCartLineQuantity(ctx context.Context, lineID int64, quantity int) error
	DeleteCartLine(ctx context.Context, lineID int64) error
}

// OrderRepository is the orders table.
// PlaceOrder must insert the order and clear the owner's cart atomically.
type OrderRepository interface {
	GetCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartLineView, error)
	PlaceOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) (bool, error)
}

// MessageRepository is the contact_messages table
type MessageRepository interface {
	CreateContactMessage(ctx context.Context, m *models.ContactMessage) error
	ListContactMessages(ctx context.Context) ([]models.ContactMessage, error)
	DeleteContactMessage(ctx context.Context, id int64) error
}

//go:generate mockgen -destination=mock/mock_publisher.go -package=mock storefront/internal/service ChangePublisher

// ChangePublisher writes change notifications to the feed
type ChangePublisher interface {
	PublishChange(ctx context.Context, event *models.ChangeEvent) error
}

// CheckoutGuard serializes checkouts per principal and remembers idempotency keys
type CheckoutGuard interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
	GetIdempotentOrder(ctx context.Context, key string) (int64, bool, error)
	SetIdempotentOrder(ctx context.Context, key string, orderID int64, ttl time.Duration) error
}
