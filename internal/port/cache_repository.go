package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// LocalCartCache stores anonymous carts keyed by session. Every save replaces
// the whole list.
type LocalCartCache interface {
	// LoadCart returns an empty cart when nothing is stored; undecodable data
	// fails with domain.ErrCorruptCache
	LoadCart(ctx context.Context, sessionID string) (domain.Cart, error)

	SaveCart(ctx context.Context, sessionID string, cart domain.Cart) error

	ClearCart(ctx context.Context, sessionID string) error
}

type SessionStore interface {
	// CreateSession stores a new session, returns false if the id is already taken
	CreateSession(ctx context.Context, session domain.Session) (bool, error)

	// GetSession returns nil when the session is unknown or expired
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// UpdateSession replaces an existing session and keeps its expiry
	UpdateSession(ctx context.Context, session domain.Session) error

	DeleteSession(ctx context.Context, id string) error
}
