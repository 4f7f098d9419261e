package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	// ErrConflict marks a stale write; callers may retry.
	ErrConflict = errors.New("conflict")
	// ErrServer marks an unexpected Account Store failure.
	ErrServer = errors.New("server error")

	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrCorruptCache       = errors.New("corrupt cache entry")
	ErrEmptyCart          = errors.New("cart is empty")

	ErrProductNotFound   = fmt.Errorf("product %w", ErrNotFound)
	ErrAccountNotFound   = fmt.Errorf("account %w", ErrNotFound)
	ErrCartEntryNotFound = fmt.Errorf("cart entry %w", ErrNotFound)
	ErrSessionNotFound   = fmt.Errorf("session %w", ErrNotAuthenticated)

	ErrEmailTaken    = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrDocumentTaken = fmt.Errorf("documento already registered: %w", ErrConflict)
)

// Validationf builds an error matching ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
