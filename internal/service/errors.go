package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCartLineNotFound   = errors.New("cart item not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrInsufficientStock  = errors.New("not enough stock available")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOutOfStock         = errors.New("cart contains items that are out of stock")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrStatusConflict     = errors.New("order status changed concurrently")
)

// ValidationError reports a missing or malformed input field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func required(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("is invalid: %v", err)}
}
