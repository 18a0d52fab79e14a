package store

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
)

const cartViewQuery = `
	SELECT c.id, c.user_id, c.product_id, c.quantity,
	       p.name, p.price, p.category, p.quantity AS stock, p.description, p.image_url
	FROM cart c
	JOIN products p ON p.id = c.product_id`

// GetCartLines retrieves a user's cart lines joined with their products
func (s *Store) GetCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartLineView, error) {
	lines := []models.CartLineView{}
	err := s.db.SelectContext(ctx, &lines, cartViewQuery+" WHERE c.user_id = $1 ORDER BY c.id", userID)
	return lines, err
}

// GetCartLineByProduct finds the line holding productID in a user's cart
func (s *Store) GetCartLineByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := s.db.GetContext(ctx, &line,
		"SELECT * FROM cart WHERE user_id = $1 AND product_id = $2 ORDER BY id LIMIT 1",
		userID, productID)
	if err != nil {
		return nil, notFound(err, "cart line for product %d", productID)
	}
	return &line, nil
}

// CreateCartLine inserts a cart line
func (s *Store) CreateCartLine(ctx context.Context, line *models.CartLine) error {
	query := `
		INSERT INTO cart (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query, line.UserID, line.ProductID, line.Quantity).
		Scan(&line.ID, &line.CreatedAt)
}

// UpdateCartLineQuantity sets the quantity of a cart line
func (s *Store) UpdateCartLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE cart SET quantity = $1 WHERE id = $2", quantity, lineID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cart line %d: %w", lineID, ErrNotFound)
	}
	return nil
}

// DeleteCartLine removes a cart line
func (s *Store) DeleteCartLine(ctx context.Context, lineID int64) error {
	return s.deleteByID(ctx, "cart", lineID)
}
