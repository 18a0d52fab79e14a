package store

import (
	"context"

	"storefront/internal/models"
)

// CreateContactMessage stores a contact form submission
func (s *Store) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	query := `
		INSERT INTO contact_messages (name, email, subject, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query, m.Name, m.Email, m.Subject, m.Message).
		Scan(&m.ID, &m.CreatedAt)
}

// ListContactMessages returns all messages, newest first
func (s *Store) ListContactMessages(ctx context.Context) ([]models.ContactMessage, error) {
	messages := []models.ContactMessage{}
	err := s.db.SelectContext(ctx, &messages,
		"SELECT * FROM contact_messages ORDER BY created_at DESC, id DESC")
	return messages, err
}

// DeleteContactMessage deletes a message
func (s *Store) DeleteContactMessage(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "contact_messages", id)
}
