package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// OrderService handles order history and the admin status board
type OrderService struct {
	repo     OrderRepository
	notifier changeNotifier
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repo OrderRepository, publisher ChangePublisher) *OrderService {
	logger := util.GetLogger()
	return &OrderService{
		repo:     repo,
		notifier: changeNotifier{publisher: publisher, logger: logger},
		logger:   logger,
	}
}

// ListMine returns the principal's orders, newest first
func (s *OrderService) ListMine(ctx context.Context, p *models.Principal) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListMine")
	defer span.End()

	orders, err := s.repo.GetOrdersByUserID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListAll returns every order, newest first. An empty status lists all statuses.
func (s *OrderService) ListAll(ctx context.Context, status string) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListAll")
	defer span.End()

	var filter models.OrderStatus
	if status != "" {
		parsed, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, invalid("status", err)
		}
		filter = parsed
	}

	orders, err := s.repo.GetOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get returns one order. Customers only see their own orders; anything
// else is reported as not found.
func (s *OrderService) Get(ctx context.Context, p *models.Principal, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Get")
	defer span.End()

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if !p.IsAdmin() && order.UserID != p.UserID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Advance moves an order one step forward from the status the caller saw.
// It fails with ErrStatusConflict if the order has moved on since.
func (s *OrderService) Advance(ctx context.Context, orderID int64, from models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Advance")
	defer span.End()

	if from.Terminal() {
		util.OrderStatusRejectedTotal.WithLabelValues("terminal").Inc()
		return nil, fmt.Errorf("%w: %s is terminal", models.ErrInvalidTransition, from)
	}
	to, ok := from.Next()
	if !ok {
		util.OrderStatusRejectedTotal.WithLabelValues("unknown_status").Inc()
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownStatus, from)
	}
	return s.transition(ctx, orderID, from, to)
}

// SetStatus moves an order to status to, provided the transition from its
// current status is allowed.
func (s *OrderService) SetStatus(ctx context.Context, orderID int64, to models.OrderStatus) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SetStatus")
	defer span.End()

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := models.ValidateTransition(order.Status, to); err != nil {
		util.OrderStatusRejectedTotal.WithLabelValues("invalid_transition").Inc()
		s.logger.Warn("Rejected order status change",
			zap.Int64("order_id", orderID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(to)))
		return nil, err
	}
	return s.transition(ctx, orderID, order.Status, to)
}

func (s *OrderService) transition(ctx context.Context, orderID int64, from, to models.OrderStatus) (*models.Order, error) {
	updated, err := s.repo.UpdateOrderStatus(ctx, orderID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if !updated {
		// Either the order is gone or its status is no longer from
		if _, err := s.repo.GetOrderByID(ctx, orderID); errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		util.OrderStatusRejectedTotal.WithLabelValues("conflict").Inc()
		return nil, ErrStatusConflict
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.notifier.notify(ctx, models.TableOrders, models.EventTypeUpdate, orderID, order.UserID)
	return order, nil
}
