package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContactForm is a message submitted through the contact page
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactService stores contact messages for the admin inbox
type ContactService struct {
	repo     MessageRepository
	notifier changeNotifier
	logger   *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(repo MessageRepository, publisher ChangePublisher) *ContactService {
	logger := util.GetLogger()
	return &ContactService{
		repo:     repo,
		notifier: changeNotifier{publisher: publisher, logger: logger},
		logger:   logger,
	}
}

// Submit stores a message. Every field is required.
func (s *ContactService) Submit(ctx context.Context, form ContactForm) (*models.ContactMessage, error) {
	ctx, span := util.StartSpan(ctx, "ContactService.Submit")
	defer span.End()

	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Subject: strings.TrimSpace(form.Subject),
		Message: strings.TrimSpace(form.Message),
	}
	switch {
	case msg.Name == "":
		return nil, required("name")
	case msg.Email == "":
		return nil, required("email")
	case msg.Subject == "":
		return nil, required("subject")
	case msg.Message == "":
		return nil, required("message")
	}

	if err := s.repo.CreateContactMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	s.logger.Info("Contact message received", zap.Int64("message_id", msg.ID))
	s.notifier.notify(ctx, models.TableContactMessages, models.EventTypeInsert, msg.ID, uuid.Nil)
	return msg, nil
}

// List returns every message, newest first
func (s *ContactService) List(ctx context.Context) ([]models.ContactMessage, error) {
	ctx, span := util.StartSpan(ctx, "ContactService.List")
	defer span.End()

	messages, err := s.repo.ListContactMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// Delete removes a message
func (s *ContactService) Delete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "ContactService.Delete")
	defer span.End()

	if err := s.repo.DeleteContactMessage(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	s.notifier.notify(ctx, models.TableContactMessages, models.EventTypeDelete, id, uuid.Nil)
	return nil
}
