package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "product %d", id)
	}
	return &product, nil
}

// ListProducts retrieves products, optionally by category and a search term
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products WHERE 1=1"
	var args []interface{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", len(args))
	}
	if filter.Query != "" {
		args = append(args, containsPattern(filter.Query))
		query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds an ILIKE pattern matching q literally anywhere
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// ListCategories returns the distinct product categories
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.db.SelectContext(ctx, &categories,
		"SELECT DISTINCT category FROM products ORDER BY category")
	return categories, err
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, price, category, quantity, description, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		p.Name, p.Price, p.Category, p.Quantity, p.Description, p.ImageURL,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// UpdateProduct overwrites every editable field of a product
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, price = $2, category = $3, quantity = $4,
		    description = $5, image_url = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		p.Name, p.Price, p.Category, p.Quantity, p.Description, p.ImageURL, p.ID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return notFound(err, "product %d", p.ID)
	}
	return nil
}

// DeleteProduct deletes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "products", id)
}

func (s *Store) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return nil
}
