package cartsync

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

var errStoreDown = errors.New("account store unavailable")

// flakyCarts fails every call while down is set.
type flakyCarts struct {
	port.AccountCartAPI
	mu   sync.Mutex
	down bool
}

func (f *flakyCarts) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *flakyCarts) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errStoreDown
	}
	return nil
}

func (f *flakyCarts) GetCart(ctx context.Context, accountID string) (domain.Cart, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.AccountCartAPI.GetCart(ctx, accountID)
}

func (f *flakyCarts) AddItem(ctx context.Context, accountID, productID string, quantity int) (domain.Cart, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.AccountCartAPI.AddItem(ctx, accountID, productID, quantity)
}

func (f *flakyCarts) SetItemQuantity(ctx context.Context, accountID, productID string, quantity int) (domain.Cart, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.AccountCartAPI.SetItemQuantity(ctx, accountID, productID, quantity)
}

type fixture struct {
	catalog  *memory.Catalog
	accounts *memory.Accounts
	cache    *memory.LocalCarts
	sessions *memory.Sessions
	store    *service.CartService
	carts    *flakyCarts
	backends Backends
}

func newFixture(t *testing.T, products ...domain.Product) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		catalog:  memory.NewCatalog(products...),
		accounts: memory.NewAccounts(domain.Account{ID: "acc-1", Email: "a@example.com", Documento: "123456"}),
		cache:    memory.NewLocalCarts(),
		sessions: memory.NewSessions(),
	}
	f.store = service.NewCartService(f.accounts, f.catalog, log)
	f.carts = &flakyCarts{AccountCartAPI: f.store}
	f.backends = Backends{
		Cache:    f.cache,
		Carts:    f.carts,
		Products: service.NewCatalogService(f.catalog, log),
		Log:      log,
	}
	return f
}

func (f *fixture) synchronizer(sessionID string) *Synchronizer {
	return NewSynchronizer(
		f.backends.Local(sessionID),
		f.backends.Remote,
		f.backends.Log.WithField("session_id", sessionID),
	)
}

func (f *fixture) product(t *testing.T, id string) domain.Product {
	t.Helper()
	p, err := f.catalog.GetProduct(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return *p
}

func (f *fixture) remoteCart(t *testing.T) domain.Cart {
	t.Helper()
	cart, err := f.store.GetCart(context.Background(), "acc-1")
	require.NoError(t, err)
	return cart
}

func (f *fixture) localCart(t *testing.T, sessionID string) domain.Cart {
	t.Helper()
	cart, err := f.cache.LoadCart(context.Background(), sessionID)
	require.NoError(t, err)
	return cart
}

func product(id string, price int64, stock int) domain.Product {
	now := time.Now()
	return domain.Product{
		ID:          id,
		Name:        "Product " + id,
		Description: "a product used in tests",
		Price:       price,
		Category:    domain.CategoryWomen,
		Stock:       stock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
