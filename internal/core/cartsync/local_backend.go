package cartsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// LocalBackend keeps an anonymous session's cart in the local cache. Stock is
// checked only against the snapshot stored with each entry; the catalog is
// never consulted.
type LocalBackend struct {
	cache     port.LocalCartCache
	sessionID string
	log       *logrus.Entry
}

var _ CartBackend = (*LocalBackend)(nil)

func (b *LocalBackend) Load(ctx context.Context) (domain.Cart, error) {
	cart, err := b.cache.LoadCart(ctx, b.sessionID)
	if errors.Is(err, domain.ErrCorruptCache) {
		b.log.WithError(err).Warn("discarding unreadable local cart")
		return domain.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load local cart: %w", err)
	}
	return cart, nil
}

func (b *LocalBackend) Add(ctx context.Context, product domain.Product, quantity int) (domain.Cart, error) {
	cart, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	return b.save(ctx, cart.WithAdded(product, quantity))
}

func (b *LocalBackend) SetQuantity(ctx context.Context, productID string, quantity int) (domain.Cart, error) {
	cart, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !cart.Contains(productID) {
		return cart, nil
	}
	return b.save(ctx, cart.WithQuantity(productID, quantity))
}

func (b *LocalBackend) Remove(ctx context.Context, productID string) (domain.Cart, error) {
	cart, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !cart.Contains(productID) {
		return cart, nil
	}
	return b.save(ctx, cart.Without(productID))
}

func (b *LocalBackend) Clear(ctx context.Context) (domain.Cart, error) {
	if err := b.cache.ClearCart(ctx, b.sessionID); err != nil {
		return nil, fmt.Errorf("clear local cart: %w", err)
	}
	return domain.Cart{}, nil
}

func (b *LocalBackend) save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if err := b.cache.SaveCart(ctx, b.sessionID, cart); err != nil {
		return nil, fmt.Errorf("save local cart: %w", err)
	}
	return cart, nil
}
