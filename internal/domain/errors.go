// Package domain holds the error taxonomy shared by the catalog, order and
// HTTP layers.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity rejects add/update requests with quantity <= 0
	// before any storage is touched.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrAlreadyValidated is returned by a second validation attempt.
	// VALIDATED is terminal.
	ErrAlreadyValidated = errors.New("order already validated")

	// ErrOrderValidated rejects line mutations against a validated order:
	// its stock consumption is frozen.
	ErrOrderValidated = errors.New("order is validated and can no longer be modified")
)

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError carries the quantity the caller could still request
// as a target: current stock plus whatever the existing line already holds.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
