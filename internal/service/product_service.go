package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductForm is the admin product form. Numeric fields arrive as text.
type ProductForm struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Quantity    string `json:"quantity"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// apply copies the form onto p, parsing numeric fields
func (f ProductForm) apply(p *models.Product) error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return required("name")
	}
	category := strings.TrimSpace(f.Category)
	if category == "" {
		return required("category")
	}

	priceText := strings.TrimSpace(f.Price)
	if priceText == "" {
		return required("price")
	}
	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return invalid("price", err)
	}

	qtyText := strings.TrimSpace(f.Quantity)
	if qtyText == "" {
		return required("quantity")
	}
	quantity, err := strconv.Atoi(qtyText)
	if err != nil {
		return invalid("quantity", err)
	}

	p.Name = name
	p.Price = price
	p.Category = category
	p.Quantity = quantity
	p.Description = f.Description
	p.ImageURL = strings.TrimSpace(f.ImageURL)
	return nil
}

// ProductService serves the catalog and the admin inventory
type ProductService struct {
	repo              ProductRepository
	notifier          changeNotifier
	lowStockThreshold int
	logger            *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(repo ProductRepository, publisher ChangePublisher, lowStockThreshold int) *ProductService {
	logger := util.GetLogger()
	return &ProductService{
		repo:              repo,
		notifier:          changeNotifier{publisher: publisher, logger: logger},
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
	}
}

func (s *ProductService) label(p *models.Product) {
	p.LowStock = p.Quantity <= s.lowStockThreshold
}

// List returns the catalog, optionally narrowed by category and search text
func (s *ProductService) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.List")
	defer span.End()

	filter.Category = strings.TrimSpace(filter.Category)
	filter.Query = strings.TrimSpace(filter.Query)

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	for i := range products {
		s.label(&products[i])
	}
	return products, nil
}

// Get returns one product
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Get")
	defer span.End()

	product, err := s.repo.GetProductByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	s.label(product)
	return product, nil
}

// Categories returns the distinct catalog categories
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Categories")
	defer span.End()

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Create adds a product from the admin form
func (s *ProductService) Create(ctx context.Context, form ProductForm) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Create")
	defer span.End()

	product := &models.Product{}
	if err := form.apply(product); err != nil {
		return nil, err
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name))
	s.notifier.notify(ctx, models.TableProducts, models.EventTypeInsert, product.ID, uuid.Nil)

	s.label(product)
	return product, nil
}

// Update overwrites a product with the admin form
func (s *ProductService) Update(ctx context.Context, id int64, form ProductForm) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Update")
	defer span.End()

	product := &models.Product{ID: id}
	if err := form.apply(product); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Product updated", zap.Int64("product_id", id))
	s.notifier.notify(ctx, models.TableProducts, models.EventTypeUpdate, id, uuid.Nil)

	s.label(product)
	return product, nil
}

// Delete removes a product. Past orders keep their snapshot.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "ProductService.Delete")
	defer span.End()

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	s.notifier.notify(ctx, models.TableProducts, models.EventTypeDelete, id, uuid.Nil)
	return nil
}
