// Package cartsync keeps a session's cart on exactly one authoritative
// backend: the session-local cache while anonymous, the Account Store once
// the session is bound to an account. The login transition merges one into
// the other.
package cartsync

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CartBackend is one place a cart can live. Every mutation returns the full
// cart as the backend holds it afterwards.
type CartBackend interface {
	Load(ctx context.Context) (domain.Cart, error)

	// Add accumulates quantity units of product, clamped to stock
	Add(ctx context.Context, product domain.Product, quantity int) (domain.Cart, error)

	// SetQuantity sets an absolute quantity of at least one
	SetQuantity(ctx context.Context, productID string, quantity int) (domain.Cart, error)

	// Remove is idempotent
	Remove(ctx context.Context, productID string) (domain.Cart, error)

	Clear(ctx context.Context) (domain.Cart, error)
}

// Backends builds the two backend kinds from the shared stores.
type Backends struct {
	Cache    port.LocalCartCache
	Carts    port.AccountCartAPI
	Products port.ProductReader
	Log      *logrus.Logger
}

func (b Backends) Local(sessionID string) CartBackend {
	return &LocalBackend{
		cache:     b.Cache,
		sessionID: sessionID,
		log:       b.Log.WithField("session_id", sessionID),
	}
}

func (b Backends) Remote(accountID string) CartBackend {
	return &RemoteBackend{
		carts:     b.Carts,
		products:  b.Products,
		accountID: accountID,
	}
}
