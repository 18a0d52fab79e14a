package store

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// PlaceOrder inserts the order and empties the owner's cart in one transaction
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (user_id, customer_name, email, address, phone, items,
		                    subtotal, shipping_fee, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.UserID, order.CustomerName, order.Email, order.Address, order.Phone, order.Items,
		order.Subtotal, order.ShippingFee, order.TotalPrice, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart WHERE user_id = $1", order.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "order %d", id)
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
	return orders, err
}

// GetOrders retrieves all orders, newest first. An empty status matches every order.
func (s *Store) GetOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	orders := []models.Order{}
	if status == "" {
		err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC, id DESC")
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC, id DESC", status)
	return orders, err
}

// UpdateOrderStatus moves an order from one status to another.
// It reports false when the order is missing or no longer in status from.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
