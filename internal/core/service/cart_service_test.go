package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
)

func newCartFixture(products ...domain.Product) (*CartService, *memory.Accounts, *memory.Catalog) {
	accounts := memory.NewAccounts(domain.Account{ID: "acc-1", Email: "a@example.com", Documento: "123456"})
	catalog := memory.NewCatalog(products...)
	return NewCartService(accounts, catalog, testLogger()), accounts, catalog
}

func TestGetCart_InitializesMissingCart(t *testing.T) {
	svc, accounts, _ := newCartFixture()

	cart, err := svc.GetCart(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(cart) != 0 {
		t.Errorf("expected empty cart, got %d entries", len(cart))
	}

	stored, _ := accounts.GetCart(context.Background(), "acc-1")
	if stored == nil || stored.Version != 1 {
		t.Errorf("expected initialized cart at version 1, got %+v", stored)
	}
}

func TestGetCart_UnknownAccount(t *testing.T) {
	svc, _, _ := newCartFixture()

	_, err := svc.GetCart(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got: %v", err)
	}
}

func TestGetCart_DropsDanglingProducts(t *testing.T) {
	svc, accounts, _ := newCartFixture(testProduct("p1", 100, 5))
	err := accounts.SaveCart(context.Background(), domain.StoredCart{
		AccountID: "acc-1",
		Items: []domain.CartItem{
			{ProductID: "gone", Quantity: 1},
			{ProductID: "p1", Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("seed cart failed: %v", err)
	}

	cart, err := svc.GetCart(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(cart) != 1 || cart[0].Product.ID != "p1" || cart[0].Quantity != 2 {
		t.Errorf("expected only p1 x2, got %+v", cart)
	}
}

func TestAddItem_Accumulates(t *testing.T) {
	svc, _, _ := newCartFixture(testProduct("p1", 250, 10))
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "acc-1", "p1", 2); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	cart, err := svc.AddItem(ctx, "acc-1", "p1", 3)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if cart.Quantity("p1") != 5 {
		t.Errorf("expected quantity 5, got %d", cart.Quantity("p1"))
	}
	if cart.Total() != 1250 {
		t.Errorf("expected total 1250, got %d", cart.Total())
	}
}

func TestAddItem_InsufficientStock(t *testing.T) {
	svc, _, _ := newCartFixture(testProduct("p1", 100, 4))
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "acc-1", "p1", 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, err := svc.AddItem(ctx, "acc-1", "p1", 2)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got: %v", err)
	}

	cart, _ := svc.GetCart(ctx, "acc-1")
	if cart.Quantity("p1") != 3 {
		t.Errorf("expected quantity to stay 3, got %d", cart.Quantity("p1"))
	}
}

func TestAddItem_HugeQuantityRejected(t *testing.T) {
	svc, _, _ := newCartFixture(testProduct("p1", 100, 4))
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "acc-1", "p1", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	_, err := svc.AddItem(ctx, "acc-1", "p1", math.MaxInt)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got: %v", err)
	}

	cart, _ := svc.GetCart(ctx, "acc-1")
	if cart.Quantity("p1") != 2 {
		t.Errorf("expected quantity to stay 2, got %d", cart.Quantity("p1"))
	}
}

func TestAddItem_Rejects(t *testing.T) {
	inactive := testProduct("off", 100, 4)
	inactive.Active = false
	svc, _, _ := newCartFixture(inactive)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "acc-1", "off", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got: %v", err)
	}
	if _, err := svc.AddItem(ctx, "acc-1", "off", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound for inactive product, got: %v", err)
	}
	if _, err := svc.AddItem(ctx, "acc-1", "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestSetItemQuantity(t *testing.T) {
	svc, _, _ := newCartFixture(testProduct("c", 100, 3))
	ctx := context.Background()

	if _, err := svc.SetItemQuantity(ctx, "acc-1", "c", 1); !errors.Is(err, domain.ErrCartEntryNotFound) {
		t.Errorf("expected ErrCartEntryNotFound, got: %v", err)
	}

	if _, err := svc.AddItem(ctx, "acc-1", "c", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.SetItemQuantity(ctx, "acc-1", "c", 10); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got: %v", err)
	}

	cart, err := svc.SetItemQuantity(ctx, "acc-1", "c", 3)
	if err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if cart.Quantity("c") != 3 {
		t.Errorf("expected quantity 3, got %d", cart.Quantity("c"))
	}
}

func TestRemoveItem_Idempotent(t *testing.T) {
	svc, accounts, _ := newCartFixture(testProduct("p1", 100, 3), testProduct("p2", 100, 3))
	ctx := context.Background()

	svc.AddItem(ctx, "acc-1", "p1", 1)
	svc.AddItem(ctx, "acc-1", "p2", 1)

	cart, err := svc.RemoveItem(ctx, "acc-1", "p1")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	before, _ := accounts.GetCart(ctx, "acc-1")

	again, err := svc.RemoveItem(ctx, "acc-1", "p1")
	if err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
	after, _ := accounts.GetCart(ctx, "acc-1")

	if len(cart) != 1 || len(again) != 1 || again[0].Product.ID != "p2" {
		t.Errorf("expected only p2 left, got %+v", again)
	}
	if before.Version != after.Version {
		t.Errorf("removing an absent product should not write, version %d -> %d", before.Version, after.Version)
	}
}

func TestClearCart(t *testing.T) {
	svc, _, _ := newCartFixture(testProduct("p1", 100, 3))
	ctx := context.Background()

	svc.AddItem(ctx, "acc-1", "p1", 2)
	cart, err := svc.ClearCart(ctx, "acc-1")
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(cart) != 0 {
		t.Errorf("expected empty cart, got %+v", cart)
	}
}

// racingAccounts lets another writer win the first SaveCart it sees.
type racingAccounts struct {
	*memory.Accounts
	once sync.Once
}

func (r *racingAccounts) SaveCart(ctx context.Context, cart domain.StoredCart) error {
	r.once.Do(func() {
		_ = r.Accounts.SaveCart(ctx, cart)
	})
	return r.Accounts.SaveCart(ctx, cart)
}

func TestAddItem_StaleVersionConflicts(t *testing.T) {
	inner := memory.NewAccounts(domain.Account{ID: "acc-1"})
	if err := inner.SaveCart(context.Background(), domain.StoredCart{AccountID: "acc-1"}); err != nil {
		t.Fatalf("seed cart failed: %v", err)
	}
	accounts := &racingAccounts{Accounts: inner}
	svc := NewCartService(accounts, memory.NewCatalog(testProduct("p1", 100, 5)), testLogger())

	_, err := svc.AddItem(context.Background(), "acc-1", "p1", 1)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict, got: %v", err)
	}
}

func TestAddItem_ConcurrentWritersNeverOversell(t *testing.T) {
	svc, _, _ := newCartFixture(testProduct("p1", 100, 20))
	ctx := context.Background()
	svc.GetCart(ctx, "acc-1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItem(ctx, "acc-1", "p1", 1); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	cart, err := svc.GetCart(ctx, "acc-1")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if cart.Quantity("p1") != success {
		t.Errorf("expected quantity %d to match successful adds, got %d", success, cart.Quantity("p1"))
	}
	if cart.Quantity("p1") > 20 {
		t.Errorf("quantity %d exceeds stock", cart.Quantity("p1"))
	}
}
