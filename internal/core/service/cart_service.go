package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CartService is the Account Store cart API. Each mutation is a
// read-modify-write of the account's cart document; a concurrent writer makes
// the save fail with domain.ErrConflict, which is returned, never retried.
type CartService struct {
	accounts port.AccountRepository
	products port.ProductRepository
	log      *logrus.Logger
}

var _ port.AccountCartAPI = (*CartService)(nil)

func NewCartService(accounts port.AccountRepository, products port.ProductRepository, log *logrus.Logger) *CartService {
	return &CartService{accounts: accounts, products: products, log: log}
}

func (s *CartService) GetCart(ctx context.Context, accountID string) (domain.Cart, error) {
	stored, err := s.loadCart(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, stored)
}

func (s *CartService) AddItem(ctx context.Context, accountID, productID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	stored, err := s.loadCart(ctx, accountID)
	if err != nil {
		return nil, err
	}

	i := stored.Index(productID)
	existing := 0
	if i >= 0 {
		existing = stored.Items[i].Quantity
	}
	if quantity > product.Stock-existing {
		return nil, fmt.Errorf("%w: %d more requested, %d in cart, %d available", domain.ErrInsufficientStock, quantity, existing, product.Stock)
	}

	if i >= 0 {
		stored.Items[i].Quantity = existing + quantity
	} else {
		stored.Items = append(stored.Items, domain.CartItem{ProductID: productID, Quantity: quantity})
	}
	return s.save(ctx, stored)
}

func (s *CartService) SetItemQuantity(ctx context.Context, accountID, productID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, fmt.Errorf("%w: %d requested, %d available", domain.ErrInsufficientStock, quantity, product.Stock)
	}

	stored, err := s.loadCart(ctx, accountID)
	if err != nil {
		return nil, err
	}

	i := stored.Index(productID)
	if i < 0 {
		return nil, domain.ErrCartEntryNotFound
	}
	stored.Items[i].Quantity = quantity
	return s.save(ctx, stored)
}

// RemoveItem is idempotent; removing an absent product writes nothing.
func (s *CartService) RemoveItem(ctx context.Context, accountID, productID string) (domain.Cart, error) {
	stored, err := s.loadCart(ctx, accountID)
	if err != nil {
		return nil, err
	}

	i := stored.Index(productID)
	if i < 0 {
		return s.populate(ctx, stored)
	}
	stored.Items = append(stored.Items[:i:i], stored.Items[i+1:]...)
	return s.save(ctx, stored)
}

func (s *CartService) ClearCart(ctx context.Context, accountID string) (domain.Cart, error) {
	stored, err := s.loadCart(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(stored.Items) == 0 {
		return domain.Cart{}, nil
	}

	stored.Items = nil
	return s.save(ctx, stored)
}

func (s *CartService) activeProduct(ctx context.Context, productID string) (domain.Product, error) {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	if p == nil || !p.Active {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return *p, nil
}

// loadCart returns the account's cart document, initializing an empty one the
// first time an account's cart is touched.
func (s *CartService) loadCart(ctx context.Context, accountID string) (domain.StoredCart, error) {
	account, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return domain.StoredCart{}, fmt.Errorf("get account: %w", err)
	}
	if account == nil {
		return domain.StoredCart{}, domain.ErrAccountNotFound
	}

	stored, err := s.accounts.GetCart(ctx, accountID)
	if err != nil {
		return domain.StoredCart{}, fmt.Errorf("get cart: %w", err)
	}
	if stored != nil {
		return *stored, nil
	}

	empty := domain.StoredCart{AccountID: accountID}
	err = s.accounts.SaveCart(ctx, empty)
	if errors.Is(err, domain.ErrConflict) {
		// Someone else initialized it concurrently
		stored, err = s.accounts.GetCart(ctx, accountID)
		if err != nil {
			return domain.StoredCart{}, fmt.Errorf("get cart: %w", err)
		}
		if stored == nil {
			return domain.StoredCart{}, fmt.Errorf("cart for %s vanished after init: %w", accountID, domain.ErrConflict)
		}
		return *stored, nil
	}
	if err != nil {
		return domain.StoredCart{}, fmt.Errorf("init cart: %w", err)
	}

	s.log.WithField("account_id", accountID).Debug("cart initialized")
	empty.Version = 1
	return empty, nil
}

func (s *CartService) save(ctx context.Context, stored domain.StoredCart) (domain.Cart, error) {
	if err := s.accounts.SaveCart(ctx, stored); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.log.WithFields(logrus.Fields{
				"account_id": stored.AccountID,
				"version":    stored.Version,
			}).Warn("cart write lost to a concurrent update")
			return nil, err
		}
		return nil, fmt.Errorf("save cart: %w", err)
	}
	stored.Version++
	return s.populate(ctx, stored)
}

// populate resolves product references in cart order. References to products
// that no longer exist are left out of the result.
func (s *CartService) populate(ctx context.Context, stored domain.StoredCart) (domain.Cart, error) {
	if len(stored.Items) == 0 {
		return domain.Cart{}, nil
	}

	ids := make([]string, len(stored.Items))
	for i, it := range stored.Items {
		ids[i] = it.ProductID
	}
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get cart products: %w", err)
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	cart := make(domain.Cart, 0, len(stored.Items))
	for _, it := range stored.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		cart = append(cart, domain.CartEntry{Product: p, Quantity: it.Quantity})
	}
	return cart, nil
}
