// Package memstore keeps storefront rows in memory. It satisfies the same
// repository interfaces as store.Store and backs the server when
// DATABASE_URL is "memory".
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/google/uuid"
)

// Store is an in-memory row store
type Store struct {
	mu       sync.RWMutex
	seq      int64
	users    map[uuid.UUID]models.User
	products map[int64]models.Product
	cart     map[int64]models.CartLine
	orders   map[int64]models.Order
	messages map[int64]models.ContactMessage
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		products: make(map[int64]models.Product),
		cart:     make(map[int64]models.CartLine),
		orders:   make(map[int64]models.Order),
		messages: make(map[int64]models.ContactMessage),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// CreateUser inserts a user, rejecting a duplicate email
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
	}
	u.CreatedAt = time.Now()
	s.users[u.ID] = *u
	return nil
}

// GetUserByEmail retrieves a user by email, ignoring case
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return &u, nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

// ListProducts retrieves products, optionally by category and a search term
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(filter.Query)
	products := []models.Product{}
	for _, p := range s.products {
		if filter.Category != "" && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		products = append(products, p)
	}

	sort.Slice(products, func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID > products[j].ID
	})
	return products, nil
}

// ListCategories returns the distinct product categories
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, p := range s.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p.ID = s.nextID()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = *p
	return nil
}

// UpdateProduct overwrites every editable field of a product
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return fmt.Errorf("product %d: %w", p.ID, store.ErrNotFound)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	s.products[p.ID] = *p
	return nil
}

// DeleteProduct deletes a product and the cart lines that reference it
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("products %d: %w", id, store.ErrNotFound)
	}
	delete(s.products, id)
	for lineID, line := range s.cart {
		if line.ProductID == id {
			delete(s.cart, lineID)
		}
	}
	return nil
}

// GetCartLines retrieves a user's cart lines joined with their products
func (s *Store) GetCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartLineView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cartLines(userID), nil
}

func (s *Store) cartLines(userID uuid.UUID) []models.CartLineView {
	lines := []models.CartLineView{}
	for _, c := range s.cart {
		if c.UserID != userID {
			continue
		}
		p, ok := s.products[c.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, models.CartLineView{
			ID:          c.ID,
			UserID:      c.UserID,
			ProductID:   c.ProductID,
			Quantity:    c.Quantity,
			Name:        p.Name,
			Price:       p.Price,
			Category:    p.Category,
			Stock:       p.Quantity,
			Description: p.Description,
			ImageURL:    p.ImageURL,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines
}

// GetCartLineByProduct finds the line holding productID in a user's cart
func (s *Store) GetCartLineByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*models.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.CartLine
	for _, c := range s.cart {
		if c.UserID == userID && c.ProductID == productID {
			if found == nil || c.ID < found.ID {
				line := c
				found = &line
			}
		}
	}
	if found == nil {
		return nil, fmt.Errorf("cart line for product %d: %w", productID, store.ErrNotFound)
	}
	return found, nil
}

// CreateCartLine inserts a cart line
func (s *Store) CreateCartLine(ctx context.Context, line *models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[line.ProductID]; !ok {
		return fmt.Errorf("product %d: %w", line.ProductID, store.ErrNotFound)
	}
	line.ID = s.nextID()
	line.CreatedAt = time.Now()
	s.cart[line.ID] = *line
	return nil
}

// UpdateCartLineQuantity sets the quantity of a cart line
func (s *Store) UpdateCartLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.cart[lineID]
	if !ok {
		return fmt.Errorf("cart line %d: %w", lineID, store.ErrNotFound)
	}
	line.Quantity = quantity
	s.cart[lineID] = line
	return nil
}

// DeleteCartLine removes a cart line
func (s *Store) DeleteCartLine(ctx context.Context, lineID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cart[lineID]; !ok {
		return fmt.Errorf("cart %d: %w", lineID, store.ErrNotFound)
	}
	delete(s.cart, lineID)
	return nil
}

// PlaceOrder inserts the order and empties the owner's cart under one lock
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	order.ID = s.nextID()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Items == nil {
		order.Items = models.LineItems{}
	}
	s.orders[order.ID] = copyOrder(*order)

	for lineID, line := range s.cart {
		if line.UserID == order.UserID {
			delete(s.cart, lineID)
		}
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	o = copyOrder(o)
	return &o, nil
}

// copyOrder detaches the item snapshot from the caller's slice
func copyOrder(o models.Order) models.Order {
	o.Items = append(models.LineItems{}, o.Items...)
	return o
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.selectOrders(func(o models.Order) bool { return o.UserID == userID }), nil
}

// GetOrders retrieves all orders, newest first. An empty status matches every order.
func (s *Store) GetOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return s.selectOrders(func(o models.Order) bool { return status == "" || o.Status == status }), nil
}

func (s *Store) selectOrders(match func(models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []models.Order{}
	for _, o := range s.orders {
		if match(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders
}

// UpdateOrderStatus moves an order from one status to another.
// It reports false when the order is missing or no longer in status from.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	s.orders[orderID] = o
	return true, nil
}

// CreateContactMessage inserts a contact message
func (s *Store) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextID()
	m.CreatedAt = time.Now()
	s.messages[m.ID] = *m
	return nil
}

// ListContactMessages retrieves every message, newest first
func (s *Store) ListContactMessages(ctx context.Context) ([]models.ContactMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := []models.ContactMessage{}
	for _, m := range s.messages {
		messages = append(messages, m)
	}
	sort.Slice(messages, func(i, j int) bool {
		if !messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].CreatedAt.After(messages[j].CreatedAt)
		}
		return messages[i].ID > messages[j].ID
	})
	return messages, nil
}

// DeleteContactMessage deletes a contact message
func (s *Store) DeleteContactMessage(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return fmt.Errorf("contact_messages %d: %w", id, store.ErrNotFound)
	}
	delete(s.messages, id)
	return nil
}
