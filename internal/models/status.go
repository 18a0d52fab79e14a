package models

import (
	"errors"
	"fmt"
	"strings"
)

// OrderStatus is the fulfilment state of an order.
// Orders only move forward: pending -> shipped -> delivered.
type OrderStatus string

// Order statuses
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

var nextStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending: OrderStatusShipped,
	OrderStatusShipped: OrderStatusDelivered,
}

// ParseOrderStatus parses a status name, ignoring case and surrounding space
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered
}

// Next returns the status that follows s
func (s OrderStatus) Next() (OrderStatus, bool) {
	next, ok := nextStatus[s]
	return next, ok
}

// CanTransitionTo reports whether an order in status s may move to status to
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == to
}

// ValidateTransition returns ErrInvalidTransition unless from -> to is allowed
func ValidateTransition(from, to OrderStatus) error {
	if !from.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
