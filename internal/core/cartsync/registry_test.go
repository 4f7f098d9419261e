package cartsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (f *fixture) session(t *testing.T, id, accountID string) {
	t.Helper()
	ok, err := f.sessions.CreateSession(context.Background(), domain.Session{ID: id, AccountID: accountID})
	require.NoError(t, err)
	require.True(t, ok)
}

func (f *fixture) bind(accountID string, sessionID string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		err := f.sessions.UpdateSession(ctx, domain.Session{ID: sessionID, AccountID: accountID, Role: domain.RoleUser})
		return accountID, err
	}
}

func TestRegistry_UnknownSession(t *testing.T) {
	f := newFixture(t)
	r := NewRegistry(f.backends, f.sessions)

	_, _, err := r.Get(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, _, err = r.Get(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRegistry_SameSynchronizerPerSession(t *testing.T) {
	f := newFixture(t)
	r := NewRegistry(f.backends, f.sessions)
	f.session(t, "s1", "")
	f.session(t, "s2", "")
	ctx := context.Background()

	a, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	b, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	c, _, err := r.Get(ctx, "s2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_AuthenticateMergesLocalCart(t *testing.T) {
	f := newFixture(t, product("a", 100, 5))
	r := NewRegistry(f.backends, f.sessions)
	f.session(t, "s1", "")
	ctx := context.Background()

	s, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.AddToCart(ctx, f.product(t, "a"), 2))

	s, err = r.Authenticate(ctx, "s1", f.bind("acc-1", "s1"))
	require.NoError(t, err)

	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, 2, f.remoteCart(t).Quantity("a"))
	assert.Empty(t, f.localCart(t, "s1"))
}

func TestRegistry_FailedLoginKeepsAnonymousCart(t *testing.T) {
	f := newFixture(t, product("a", 100, 5))
	r := NewRegistry(f.backends, f.sessions)
	f.session(t, "s1", "")
	ctx := context.Background()

	s, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.AddToCart(ctx, f.product(t, "a"), 2))

	_, err = r.Authenticate(ctx, "s1", func(ctx context.Context) (string, error) {
		return "", domain.ErrInvalidCredentials
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	assert.Equal(t, Anonymous, s.State())
	assert.Equal(t, 2, f.localCart(t, "s1").Quantity("a"))
	assert.Equal(t, 2, s.Items().Quantity("a"))
}

func TestRegistry_MergeFailureDoesNotFailLogin(t *testing.T) {
	f := newFixture(t, product("a", 100, 5))
	r := NewRegistry(f.backends, f.sessions)
	f.session(t, "s1", "")
	ctx := context.Background()

	s, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.AddToCart(ctx, f.product(t, "a"), 2))

	f.carts.setDown(true)
	s, err = r.Authenticate(ctx, "s1", f.bind("acc-1", "s1"))
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())
}

func TestRegistry_ResumesBoundSession(t *testing.T) {
	f := newFixture(t, product("a", 100, 5))
	ctx := context.Background()
	_, err := f.store.AddItem(ctx, "acc-1", "a", 3)
	require.NoError(t, err)
	f.session(t, "s1", "acc-1")

	// a fresh registry, as after a restart
	r := NewRegistry(f.backends, f.sessions)
	s, session, err := r.Get(ctx, "s1")
	require.NoError(t, err)

	assert.True(t, session.Authenticated())
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, 3, s.Items().Quantity("a"))
}

func TestRegistry_ReloadsAnonymousCartFromCache(t *testing.T) {
	f := newFixture(t, product("a", 100, 5))
	ctx := context.Background()
	f.session(t, "s1", "")
	require.NoError(t, f.cache.SaveCart(ctx, "s1", domain.Cart{{Product: f.product(t, "a"), Quantity: 2}}))

	r := NewRegistry(f.backends, f.sessions)
	s, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Items().Quantity("a"))
}

func TestRegistry_Logout(t *testing.T) {
	f := newFixture(t, product("a", 100, 5))
	r := NewRegistry(f.backends, f.sessions)
	f.session(t, "s1", "acc-1")
	ctx := context.Background()

	s, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.AddToCart(ctx, f.product(t, "a"), 1))

	err = r.Logout(ctx, "s1", func(ctx context.Context) error {
		return f.sessions.UpdateSession(ctx, domain.Session{ID: "s1"})
	})
	require.NoError(t, err)

	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, s.Items())
	assert.Equal(t, 1, f.remoteCart(t).Quantity("a"))
}

func TestRegistry_LogoutUnbindFailure(t *testing.T) {
	f := newFixture(t)
	r := NewRegistry(f.backends, f.sessions)
	f.session(t, "s1", "acc-1")
	boom := errors.New("boom")

	err := r.Logout(context.Background(), "s1", func(ctx context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	s, _, err := r.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())
}

func TestRegistry_FollowsSessionUnboundElsewhere(t *testing.T) {
	f := newFixture(t)
	r := NewRegistry(f.backends, f.sessions)
	f.session(t, "s1", "acc-1")
	ctx := context.Background()

	s, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, Authenticated, s.State())

	require.NoError(t, f.sessions.UpdateSession(ctx, domain.Session{ID: "s1"}))
	s, _, err = r.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Anonymous, s.State())
}

func TestRegistry_SweepAndForget(t *testing.T) {
	f := newFixture(t)
	r := NewRegistry(f.backends, f.sessions)
	f.session(t, "s1", "")
	f.session(t, "s2", "")
	ctx := context.Background()

	_, _, err := r.Get(ctx, "s1")
	require.NoError(t, err)
	_, _, err = r.Get(ctx, "s2")
	require.NoError(t, err)

	assert.Zero(t, r.Sweep(time.Hour))
	r.Forget("s2")
	assert.Equal(t, 1, r.Len())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, r.Sweep(time.Millisecond))
	assert.Zero(t, r.Len())
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	f := newFixture(t)
	r := NewRegistry(f.backends, f.sessions)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, time.Millisecond, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

type corruptCache struct{ *fixture }

func (c corruptCache) LoadCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	return nil, domain.ErrCorruptCache
}

func (c corruptCache) SaveCart(ctx context.Context, sessionID string, cart domain.Cart) error {
	return c.cache.SaveCart(ctx, sessionID, cart)
}

func (c corruptCache) ClearCart(ctx context.Context, sessionID string) error {
	return c.cache.ClearCart(ctx, sessionID)
}

func TestLocal_CorruptCacheReadsAsEmpty(t *testing.T) {
	f := newFixture(t, product("a", 100, 5))
	f.backends.Cache = corruptCache{f}
	s := f.synchronizer("s1")
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	assert.Empty(t, s.Items())

	require.NoError(t, s.AddToCart(ctx, f.product(t, "a"), 1))
	assert.Equal(t, 1, s.Items().Quantity("a"))
}

var errCacheDown = errors.New("cache unavailable")

type unwritableCache struct{ *fixture }

func (c unwritableCache) LoadCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	return c.cache.LoadCart(ctx, sessionID)
}

func (c unwritableCache) SaveCart(context.Context, string, domain.Cart) error {
	return errCacheDown
}

func (c unwritableCache) ClearCart(ctx context.Context, sessionID string) error {
	return c.cache.ClearCart(ctx, sessionID)
}

func TestLocal_SaveFailureIsReturned(t *testing.T) {
	f := newFixture(t, product("a", 100, 5))
	f.backends.Cache = unwritableCache{f}
	s := f.synchronizer("s1")

	err := s.AddToCart(context.Background(), f.product(t, "a"), 1)
	require.ErrorIs(t, err, errCacheDown)
	assert.Empty(t, s.Items())
}
