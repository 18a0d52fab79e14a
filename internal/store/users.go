package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when a unique constraint rejects an insert
var ErrDuplicate = errors.New("already exists")

// CreateUser inserts a user with its profile fields
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := s.db.QueryRowxContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.FullName, u.Role).
		Scan(&u.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
	}
	return err
}

// GetUserByEmail retrieves a user by email, ignoring case
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE LOWER(email) = $1", strings.ToLower(email))
	if err != nil {
		return nil, notFound(err, "user %s", email)
	}
	return &u, nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return &u, nil
}
