package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type ProductRepository interface {
	// GetProduct returns nil when no product has the id
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// GetProducts returns the products that exist among ids, in no particular order
	GetProducts(ctx context.Context, ids []string) ([]domain.Product, error)

	// ListProducts returns products matching the filter, newest first
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)

	CreateProduct(ctx context.Context, product domain.Product) error

	// UpdateProduct overwrites every mutable field, returns false if the product is gone
	UpdateProduct(ctx context.Context, product domain.Product) (bool, error)

	// DeactivateProduct soft-deletes, returns false if the product is gone
	DeactivateProduct(ctx context.Context, id string) (bool, error)
}

type AccountRepository interface {
	// CreateAccount fails with domain.ErrEmailTaken or domain.ErrDocumentTaken on duplicates
	CreateAccount(ctx context.Context, account domain.Account) error

	// GetAccount returns nil when no account has the id
	GetAccount(ctx context.Context, id string) (*domain.Account, error)

	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	FindAccountByDocument(ctx context.Context, documento string) (*domain.Account, error)

	// GetCart returns nil when the account has never persisted a cart
	GetCart(ctx context.Context, accountID string) (*domain.StoredCart, error)

	// SaveCart writes the cart only if the stored version still equals cart.Version
	// (0 meaning "not yet stored"); a mismatch fails with domain.ErrConflict
	SaveCart(ctx context.Context, cart domain.StoredCart) error
}

type OrderRepository interface {
	// CreateOrder persists the order and takes its quantities from stock in one
	// transaction; any shortfall fails with domain.ErrInsufficientStock and applies nothing
	CreateOrder(ctx context.Context, order domain.Order) error
}
