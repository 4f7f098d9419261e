package cartsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
)

type State int32

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Merging
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Merging:
		return "merging"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RemoteFactory returns the Account Store backend for an account.
type RemoteFactory func(accountID string) CartBackend

// Synchronizer mediates every cart operation of one session. Operations run
// one at a time against the active backend; the login merge holds the same
// lock, so mutations issued meanwhile wait for it.
type Synchronizer struct {
	local     CartBackend
	newRemote RemoteFactory
	log       *logrus.Entry

	mu        sync.Mutex
	backend   CartBackend
	accountID string

	state    atomic.Int32
	inflight atomic.Int32

	authMu   sync.Mutex
	resolved chan struct{}
	prior    State

	view  sync.RWMutex
	items domain.Cart
}

func NewSynchronizer(local CartBackend, newRemote RemoteFactory, log *logrus.Entry) *Synchronizer {
	return &Synchronizer{
		local:     local,
		newRemote: newRemote,
		log:       log,
		backend:   local,
		items:     domain.Cart{},
	}
}

// View is a consistent read of the derived cart values.
type View struct {
	Items     domain.Cart `json:"items"`
	Total     int64       `json:"total"`
	ItemCount int         `json:"itemCount"`
	Loading   bool        `json:"loading"`
	State     State       `json:"state"`
}

func (s *Synchronizer) Snapshot() View {
	items := s.Items()
	return View{
		Items:     items,
		Total:     items.Total(),
		ItemCount: items.ItemCount(),
		Loading:   s.Loading(),
		State:     s.State(),
	}
}

func (s *Synchronizer) State() State {
	return State(s.state.Load())
}

// AccountID is empty unless the session is authenticated.
func (s *Synchronizer) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}

func (s *Synchronizer) Loading() bool {
	switch s.State() {
	case Authenticating, Merging:
		return true
	}
	return s.inflight.Load() > 0
}

func (s *Synchronizer) Items() domain.Cart {
	s.view.RLock()
	defer s.view.RUnlock()
	return append(domain.Cart{}, s.items...)
}

func (s *Synchronizer) Total() int64 {
	s.view.RLock()
	defer s.view.RUnlock()
	return s.items.Total()
}

func (s *Synchronizer) ItemCount() int {
	s.view.RLock()
	defer s.view.RUnlock()
	return s.items.ItemCount()
}

func (s *Synchronizer) IsInCart(productID string) bool {
	s.view.RLock()
	defer s.view.RUnlock()
	return s.items.Contains(productID)
}

// AddToCart does not fail when the Account Store does: the clamped result is
// applied to the in-memory cart only and the failure is logged. Local cache
// failures are returned. A non-positive quantity counts as one.
func (s *Synchronizer) AddToCart(ctx context.Context, product domain.Product, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	cart, err := s.backend.Add(ctx, product, quantity)
	if err != nil && s.backend == s.local {
		return err
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"product_id": product.ID,
			"quantity":   quantity,
		}).Warn("add to cart failed, keeping optimistic copy")
		s.setItems(s.Items().WithAdded(product, quantity))
		return nil
	}
	s.setItems(cart)
	return nil
}

// UpdateQuantity removes the entry when quantity is zero or less.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}
	return s.apply(ctx, func(b CartBackend) (domain.Cart, error) {
		return b.SetQuantity(ctx, productID, quantity)
	})
}

func (s *Synchronizer) RemoveFromCart(ctx context.Context, productID string) error {
	return s.apply(ctx, func(b CartBackend) (domain.Cart, error) {
		return b.Remove(ctx, productID)
	})
}

func (s *Synchronizer) ClearCart(ctx context.Context) error {
	return s.apply(ctx, func(b CartBackend) (domain.Cart, error) {
		return b.Clear(ctx)
	})
}

// Refresh reloads the cart from the active backend.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	return s.apply(ctx, func(b CartBackend) (domain.Cart, error) {
		return b.Load(ctx)
	})
}

// BeginAuthentication parks new operations until OnAuthTransition or
// AbortAuthentication resolves the login attempt.
func (s *Synchronizer) BeginAuthentication() {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	if s.resolved == nil {
		s.resolved = make(chan struct{})
		s.prior = s.State()
	}
	s.state.Store(int32(Authenticating))
}

// AbortAuthentication restores the state held before the failed login.
func (s *Synchronizer) AbortAuthentication() {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	if s.resolved == nil {
		return
	}
	s.state.CompareAndSwap(int32(Authenticating), int32(s.prior))
	s.resolveLocked()
}

// OnAuthTransition moves the session onto the account's remote cart. Entries
// in the local cache are first submitted one by one as additive adds, in
// cache order; a failed entry is logged and dropped. The local cache is
// cleared afterwards. Calling it again for the same account only refreshes.
func (s *Synchronizer) OnAuthTransition(ctx context.Context, accountID string) error {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.resolve()

	if s.accountID == accountID && s.State() == Authenticated {
		cart, err := s.backend.Load(ctx)
		if err != nil {
			return err
		}
		s.setItems(cart)
		return nil
	}

	log := s.log.WithField("account_id", accountID)
	remote := s.newRemote(accountID)

	pending, err := s.local.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("local cart unreadable, nothing to merge")
		pending = nil
	}
	if len(pending) > 0 {
		s.state.Store(int32(Merging))
		merged := 0
		for _, e := range pending {
			if _, err := remote.Add(ctx, e.Product, e.Quantity); err != nil {
				log.WithError(err).WithField("product_id", e.Product.ID).Warn("merge entry failed")
				continue
			}
			merged++
		}
		log.WithFields(logrus.Fields{"entries": len(pending), "merged": merged}).Info("local cart merged")
		if _, err := s.local.Clear(ctx); err != nil {
			log.WithError(err).Warn("local cart not cleared after merge")
		}
	}

	s.backend = remote
	s.accountID = accountID
	s.state.Store(int32(Authenticated))

	cart, err := remote.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cart after login: %w", err)
	}
	s.setItems(cart)
	return nil
}

// OnLogout returns the session to an empty anonymous cart. The account's
// cart stays in the Account Store and is not copied back.
func (s *Synchronizer) OnLogout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.resolve()

	s.backend = s.local
	s.accountID = ""
	s.state.Store(int32(Anonymous))
	s.setItems(domain.Cart{})

	if _, err := s.local.Clear(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Synchronizer) apply(ctx context.Context, op func(CartBackend) (domain.Cart, error)) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	cart, err := op(s.backend)
	if err != nil {
		return err
	}
	s.setItems(cart)
	return nil
}

// acquire waits out a pending login, then takes the operation lock.
func (s *Synchronizer) acquire(ctx context.Context) (func(), error) {
	s.inflight.Add(1)

	s.authMu.Lock()
	pending := s.resolved
	s.authMu.Unlock()
	if pending != nil {
		select {
		case <-pending:
		case <-ctx.Done():
			s.inflight.Add(-1)
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.inflight.Add(-1)
	}, nil
}

func (s *Synchronizer) resolve() {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	s.resolveLocked()
}

func (s *Synchronizer) resolveLocked() {
	if s.resolved != nil {
		close(s.resolved)
		s.resolved = nil
	}
}

func (s *Synchronizer) setItems(cart domain.Cart) {
	if cart == nil {
		cart = domain.Cart{}
	}
	s.view.Lock()
	s.items = cart
	s.view.Unlock()
}
