package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Pricing holds the shipping rule applied at checkout
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// Totals returns the shipping fee and grand total for a subtotal.
// Shipping is free only when the subtotal strictly exceeds the threshold.
func (p Pricing) Totals(subtotal decimal.Decimal) (shipping, total decimal.Decimal) {
	shipping = p.ShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return shipping, subtotal.Add(shipping)
}

// Quote is the checkout page: a read-only cart snapshot with totals
type Quote struct {
	Lines                 []models.CartLineView `json:"lines"`
	Subtotal              decimal.Decimal       `json:"subtotal"`
	ShippingFee           decimal.Decimal       `json:"shipping_fee"`
	Total                 decimal.Decimal       `json:"total"`
	FreeShippingThreshold decimal.Decimal       `json:"free_shipping_threshold"`
	Email                 string                `json:"email"`
	CustomerName          string                `json:"customer_name"`
}

// CheckoutForm holds the shipping fields collected at checkout
type CheckoutForm struct {
	CustomerName string `json:"customer_name"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

func (f *CheckoutForm) normalize() error {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.Email = strings.TrimSpace(f.Email)
	f.Address = strings.TrimSpace(f.Address)
	f.Phone = strings.TrimSpace(f.Phone)

	switch {
	case f.CustomerName == "":
		return required("customer_name")
	case f.Email == "":
		return required("email")
	case f.Address == "":
		return required("address")
	}
	return nil
}

// CheckoutService turns a principal's cart into an order
type CheckoutService struct {
	repo           OrderRepository
	guard          CheckoutGuard
	notifier       changeNotifier
	pricing        Pricing
	lockTTL        time.Duration
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	repo OrderRepository,
	guard CheckoutGuard,
	publisher ChangePublisher,
	pricing Pricing,
	lockTTL, idempotencyTTL time.Duration,
) *CheckoutService {
	logger := util.GetLogger()
	return &CheckoutService{
		repo:           repo,
		guard:          guard,
		notifier:       changeNotifier{publisher: publisher, logger: logger},
		pricing:        pricing,
		lockTTL:        lockTTL,
		idempotencyTTL: idempotencyTTL,
		logger:         logger,
	}
}

// Quote reads the principal's cart and prices it
func (s *CheckoutService) Quote(ctx context.Context, p *models.Principal) (*Quote, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Quote")
	defer span.End()

	lines, err := s.repo.GetCartLines(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	subtotal := CartTotal(lines)
	shipping, total := s.pricing.Totals(subtotal)

	return &Quote{
		Lines:                 NewCartView(lines).Lines,
		Subtotal:              subtotal,
		ShippingFee:           shipping,
		Total:                 total,
		FreeShippingThreshold: s.pricing.FreeShippingThreshold,
		Email:                 p.Email,
		CustomerName:          p.FullName,
	}, nil
}

// PlaceOrder creates a pending order from the principal's cart and empties
// the cart in the same transaction. A repeated idempotency key returns the
// order created the first time.
func (s *CheckoutService) PlaceOrder(ctx context.Context, p *models.Principal, form CheckoutForm, idempotencyKey string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := form.normalize(); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	idemKey := ""
	if idempotencyKey != "" {
		idemKey = p.UserID.String() + ":" + idempotencyKey
		if order, ok, err := s.replay(ctx, p, idemKey); err != nil || ok {
			return order, err
		}
	}

	lockKey := "checkout:" + p.UserID.String()
	token, acquired, err := s.guard.AcquireLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("lock_error").Inc()
		return nil, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	if !acquired {
		util.CheckoutFailedTotal.WithLabelValues("in_progress").Inc()
		return nil, ErrCheckoutInProgress
	}
	defer func() {
		if err := s.guard.ReleaseLock(context.Background(), lockKey, token); err != nil {
			s.logger.Warn("Failed to release checkout lock",
				zap.String("user_id", p.UserID.String()),
				zap.Error(err))
		}
	}()

	lines, err := s.repo.GetCartLines(ctx, p.UserID)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(lines) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}
	for _, l := range lines {
		if l.Stock == 0 || l.Quantity > l.Stock {
			util.CheckoutFailedTotal.WithLabelValues("out_of_stock").Inc()
			return nil, fmt.Errorf("%w: %s", ErrOutOfStock, l.Name)
		}
	}

	subtotal := CartTotal(lines)
	shipping, total := s.pricing.Totals(subtotal)

	order := &models.Order{
		UserID:       p.UserID,
		CustomerName: form.CustomerName,
		Email:        form.Email,
		Address:      form.Address,
		Phone:        form.Phone,
		Items:        snapshotLines(lines),
		Subtotal:     subtotal,
		ShippingFee:  shipping,
		TotalPrice:   total,
		Status:       models.OrderStatusPending,
	}

	if err := s.repo.PlaceOrder(ctx, order); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("user_id", p.UserID.String()),
		zap.String("total", order.TotalPrice.String()),
		zap.Int("lines", len(order.Items)))

	if idemKey != "" {
		if err := s.guard.SetIdempotentOrder(ctx, idemKey, order.ID, s.idempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		}
	}

	s.notifier.notify(ctx, models.TableOrders, models.EventTypeInsert, order.ID, p.UserID)
	s.notifier.notify(ctx, models.TableCart, models.EventTypeDelete, 0, p.UserID)

	return order, nil
}

func (s *CheckoutService) replay(ctx context.Context, p *models.Principal, idemKey string) (*models.Order, bool, error) {
	orderID, ok, err := s.guard.GetIdempotentOrder(ctx, idemKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load order: %w", err)
	}

	s.logger.Info("Duplicate checkout request detected",
		zap.String("user_id", p.UserID.String()),
		zap.Int64("order_id", orderID))
	return order, true, nil
}

// snapshotLines copies cart lines into order line items. The copy is what
// keeps past orders stable when products are edited or deleted later.
func snapshotLines(lines []models.CartLineView) models.LineItems {
	items := make(models.LineItems, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.LineItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
			ImageURL:  l.ImageURL,
			LineTotal: l.LineTotal(),
		})
	}
	return items
}
