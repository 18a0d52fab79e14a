package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartView is a principal's cart as shown to them
type CartView struct {
	Lines       []models.CartLineView `json:"lines"`
	ItemCount   int                   `json:"item_count"`
	TotalItems  int                   `json:"total_items"`
	Total       decimal.Decimal       `json:"total"`
	CanCheckout bool                  `json:"can_checkout"`
}

// NewCartView derives totals from lines. Nothing is cached between calls.
func NewCartView(lines []models.CartLineView) *CartView {
	if lines == nil {
		lines = []models.CartLineView{}
	}

	view := &CartView{
		Lines:       lines,
		ItemCount:   len(lines),
		Total:       CartTotal(lines),
		CanCheckout: len(lines) > 0,
	}
	for _, l := range lines {
		view.TotalItems += l.Quantity
		if l.Stock == 0 {
			view.CanCheckout = false
		}
	}
	return view
}

// CartTotal returns the sum of price times quantity over lines
func CartTotal(lines []models.CartLineView) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// CartService reads and writes a principal's cart
type CartService struct {
	repo     CartRepository
	notifier changeNotifier
	logger   *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repo CartRepository, publisher ChangePublisher) *CartService {
	logger := util.GetLogger()
	return &CartService{
		repo:     repo,
		notifier: changeNotifier{publisher: publisher, logger: logger},
		logger:   logger,
	}
}

// Load returns every cart line of the principal joined with its product
func (s *CartService) Load(ctx context.Context, p *models.Principal) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Load")
	defer span.End()

	lines, err := s.repo.GetCartLines(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return NewCartView(lines), nil
}

// Add puts quantity units of a product in the cart, merging with an
// existing line for the same product.
func (s *CartService) Add(ctx context.Context, p *models.Principal, productID int64, quantity int) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Add")
	defer span.End()

	if quantity < 1 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	product, err := s.repo.GetProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	existing, err := s.repo.GetCartLineByProduct(ctx, p.UserID, productID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if quantity > product.Quantity {
			return nil, ErrInsufficientStock
		}
		line := &models.CartLine{UserID: p.UserID, ProductID: productID, Quantity: quantity}
		if err := s.repo.CreateCartLine(ctx, line); err != nil {
			return nil, fmt.Errorf("failed to add item to cart: %w", err)
		}
		util.CartUpdatesTotal.WithLabelValues("add").Inc()
		s.notifier.notify(ctx, models.TableCart, models.EventTypeInsert, line.ID, p.UserID)

	case err != nil:
		return nil, fmt.Errorf("failed to check cart: %w", err)

	default:
		merged := existing.Quantity + quantity
		if merged > product.Quantity {
			return nil, ErrInsufficientStock
		}
		if err := s.repo.UpdateCartLineQuantity(ctx, existing.ID, merged); err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		util.CartUpdatesTotal.WithLabelValues("merge").Inc()
		s.notifier.notify(ctx, models.TableCart, models.EventTypeUpdate, existing.ID, p.UserID)
	}

	s.logger.Debug("Added to cart",
		zap.String("user_id", p.UserID.String()),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))

	return s.Load(ctx, p)
}

// Increment raises a line's quantity by one. It reports false, and issues no
// write, when the line is already at its product's stock.
func (s *CartService) Increment(ctx context.Context, p *models.Principal, lineID int64) (*CartView, bool, error) {
	return s.step(ctx, p, lineID, 1, "increment")
}

// Decrement lowers a line's quantity by one. It reports false, and issues no
// write, when the line is already at one.
func (s *CartService) Decrement(ctx context.Context, p *models.Principal, lineID int64) (*CartView, bool, error) {
	return s.step(ctx, p, lineID, -1, "decrement")
}

func (s *CartService) step(ctx context.Context, p *models.Principal, lineID int64, delta int, op string) (*CartView, bool, error) {
	ctx, span := util.StartSpan(ctx, "CartService."+op)
	defer span.End()

	lines, err := s.repo.GetCartLines(ctx, p.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cart: %w", err)
	}

	idx := indexOfLine(lines, lineID)
	if idx < 0 {
		return nil, false, ErrCartLineNotFound
	}

	candidate := lines[idx].Quantity + delta
	if candidate < 1 || candidate > lines[idx].Stock {
		util.CartNoopTotal.WithLabelValues(op).Inc()
		return NewCartView(lines), false, nil
	}

	if err := s.repo.UpdateCartLineQuantity(ctx, lineID, candidate); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, ErrCartLineNotFound
		}
		return nil, false, fmt.Errorf("failed to update quantity: %w", err)
	}

	lines[idx].Quantity = candidate
	util.CartUpdatesTotal.WithLabelValues(op).Inc()
	s.notifier.notify(ctx, models.TableCart, models.EventTypeUpdate, lineID, p.UserID)

	return NewCartView(lines), true, nil
}

// Remove deletes a line from the principal's cart
func (s *CartService) Remove(ctx context.Context, p *models.Principal, lineID int64) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Remove")
	defer span.End()

	lines, err := s.repo.GetCartLines(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	idx := indexOfLine(lines, lineID)
	if idx < 0 {
		return nil, ErrCartLineNotFound
	}

	if err := s.repo.DeleteCartLine(ctx, lineID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to remove item: %w", err)
	}

	remaining := append(lines[:idx:idx], lines[idx+1:]...)
	util.CartUpdatesTotal.WithLabelValues("remove").Inc()
	s.notifier.notify(ctx, models.TableCart, models.EventTypeDelete, lineID, p.UserID)

	return NewCartView(remaining), nil
}

func indexOfLine(lines []models.CartLineView, lineID int64) int {
	for i := range lines {
		if lines[i].ID == lineID {
			return i
		}
	}
	return -1
}
