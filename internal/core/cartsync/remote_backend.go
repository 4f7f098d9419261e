package cartsync

import (
	"context"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// RemoteBackend is an account's cart in the Account Store.
type RemoteBackend struct {
	carts     port.AccountCartAPI
	products  port.ProductReader
	accountID string
}

var _ CartBackend = (*RemoteBackend)(nil)

func (b *RemoteBackend) Load(ctx context.Context) (domain.Cart, error) {
	cart, err := b.carts.GetCart(ctx, b.accountID)
	if err != nil {
		return nil, fmt.Errorf("get remote cart: %w", err)
	}
	return cart, nil
}

// Add re-reads live stock and applies min(existing+quantity, stock) to the
// stored entry. Only the units that still fit are submitted, so an over-stock
// request is clamped here instead of being rejected by the store; an entry
// already above live stock is cut back to it.
func (b *RemoteBackend) Add(ctx context.Context, product domain.Product, quantity int) (domain.Cart, error) {
	live, err := b.products.GetProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("get live product: %w", err)
	}
	cart, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}

	existing := cart.Quantity(product.ID)
	target := domain.ClampedQuantity(existing, quantity, live.Stock)
	switch {
	case target == existing:
		return cart, nil
	case target == 0:
		return b.Remove(ctx, product.ID)
	case target < existing:
		return b.SetQuantity(ctx, product.ID, target)
	}

	cart, err = b.carts.AddItem(ctx, b.accountID, product.ID, target-existing)
	if err != nil {
		return nil, fmt.Errorf("add remote item: %w", err)
	}
	return cart, nil
}

func (b *RemoteBackend) SetQuantity(ctx context.Context, productID string, quantity int) (domain.Cart, error) {
	cart, err := b.carts.SetItemQuantity(ctx, b.accountID, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("set remote quantity: %w", err)
	}
	return cart, nil
}

func (b *RemoteBackend) Remove(ctx context.Context, productID string) (domain.Cart, error) {
	cart, err := b.carts.RemoveItem(ctx, b.accountID, productID)
	if err != nil {
		return nil, fmt.Errorf("remove remote item: %w", err)
	}
	return cart, nil
}

func (b *RemoteBackend) Clear(ctx context.Context) (domain.Cart, error) {
	cart, err := b.carts.ClearCart(ctx, b.accountID)
	if err != nil {
		return nil, fmt.Errorf("clear remote cart: %w", err)
	}
	return cart, nil
}
