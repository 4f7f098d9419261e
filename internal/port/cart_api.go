package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// AccountCartAPI is the request/response surface of the Account Store cart.
// Every call returns the full cart after the operation.
type AccountCartAPI interface {
	GetCart(ctx context.Context, accountID string) (domain.Cart, error)
	AddItem(ctx context.Context, accountID, productID string, quantity int) (domain.Cart, error)
	SetItemQuantity(ctx context.Context, accountID, productID string, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, accountID, productID string) (domain.Cart, error)
	ClearCart(ctx context.Context, accountID string) (domain.Cart, error)
}

// ProductReader is the point lookup used for live stock re-validation.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}
