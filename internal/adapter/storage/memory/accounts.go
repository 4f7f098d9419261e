package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

type Accounts struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	carts    map[string]domain.StoredCart
}

func NewAccounts(accounts ...domain.Account) *Accounts {
	a := &Accounts{
		accounts: make(map[string]domain.Account),
		carts:    make(map[string]domain.StoredCart),
	}
	for _, acc := range accounts {
		a.accounts[acc.ID] = acc
	}
	return a
}

func (a *Accounts) CreateAccount(ctx context.Context, account domain.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.accounts {
		if existing.Email == account.Email {
			return domain.ErrEmailTaken
		}
		if existing.Documento == account.Documento {
			return domain.ErrDocumentTaken
		}
	}
	a.accounts[account.ID] = account
	return nil
}

func (a *Accounts) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (a *Accounts) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return a.find(func(acc domain.Account) bool { return acc.Email == email }), nil
}

func (a *Accounts) FindAccountByDocument(ctx context.Context, documento string) (*domain.Account, error) {
	return a.find(func(acc domain.Account) bool { return acc.Documento == documento }), nil
}

func (a *Accounts) find(match func(domain.Account) bool) *domain.Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.accounts {
		if match(acc) {
			return &acc
		}
	}
	return nil
}

func (a *Accounts) GetCart(ctx context.Context, accountID string) (*domain.StoredCart, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cart, ok := a.carts[accountID]
	if !ok {
		return nil, nil
	}
	cart.Items = append([]domain.CartItem(nil), cart.Items...)
	return &cart, nil
}

func (a *Accounts) SaveCart(ctx context.Context, cart domain.StoredCart) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.carts[cart.AccountID].Version != cart.Version {
		return domain.ErrConflict
	}
	cart.Items = append([]domain.CartItem(nil), cart.Items...)
	cart.Version++
	cart.UpdatedAt = time.Now()
	a.carts[cart.AccountID] = cart
	return nil
}
