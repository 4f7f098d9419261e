package cartsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type registryEntry struct {
	sync     *Synchronizer
	lastUsed time.Time
}

// Registry hands out one Synchronizer per session. A session seen for the
// first time, for instance after a restart, is brought in line with what the
// session store says about it.
type Registry struct {
	backends Backends
	sessions port.SessionStore
	log      *logrus.Logger

	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewRegistry(backends Backends, sessions port.SessionStore) *Registry {
	return &Registry{
		backends: backends,
		sessions: sessions,
		log:      backends.Log,
		entries:  make(map[string]*registryEntry),
	}
}

// Get returns the session's Synchronizer; unknown or expired sessions fail
// with domain.ErrSessionNotFound.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Synchronizer, domain.Session, error) {
	session, err := r.resolve(ctx, sessionID)
	if err != nil {
		return nil, domain.Session{}, err
	}

	s, created := r.entry(sessionID)

	switch {
	case session.Authenticated() && (created || s.AccountID() != session.AccountID):
		if err := s.OnAuthTransition(ctx, session.AccountID); err != nil {
			return nil, domain.Session{}, err
		}
	case !session.Authenticated() && s.State() == Authenticated:
		if err := s.OnLogout(ctx); err != nil {
			return nil, domain.Session{}, err
		}
	case created:
		if err := s.Refresh(ctx); err != nil {
			return nil, domain.Session{}, err
		}
	}
	return s, session, nil
}

// Authenticate runs login while the session's cart is parked in the
// Authenticating state. login must bind the session and return the account
// id. A failed login leaves the cart as it was. A failed merge does not fail
// the login; it is logged and the session still ends up authenticated.
func (r *Registry) Authenticate(ctx context.Context, sessionID string, login func(ctx context.Context) (string, error)) (*Synchronizer, error) {
	s, _, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.BeginAuthentication()
	accountID, err := login(ctx)
	if err != nil {
		s.AbortAuthentication()
		return nil, err
	}

	if err := s.OnAuthTransition(ctx, accountID); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"account_id": accountID,
		}).Warn("cart transition incomplete after login")
	}
	return s, nil
}

// Logout runs unbind and then resets the session's cart to anonymous.
func (r *Registry) Logout(ctx context.Context, sessionID string, unbind func(ctx context.Context) error) error {
	s, _, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := unbind(ctx); err != nil {
		return err
	}
	return s.OnLogout(ctx)
}

func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// Sweep drops Synchronizers unused for longer than idle and returns how many
// were dropped. Their carts stay in the stores.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if e.lastUsed.Before(cutoff) && !e.sync.Loading() {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx ends.
func (r *Registry) Run(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.WithField("dropped", n).Debug("idle carts swept")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) resolve(ctx context.Context, sessionID string) (domain.Session, error) {
	if sessionID == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	session, err := r.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *session, nil
}

func (r *Registry) entry(sessionID string) (*Synchronizer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[sessionID]; ok {
		e.lastUsed = time.Now()
		return e.sync, false
	}
	s := NewSynchronizer(
		r.backends.Local(sessionID),
		r.backends.Remote,
		r.log.WithField("session_id", sessionID),
	)
	r.entries[sessionID] = &registryEntry{sync: s, lastUsed: time.Now()}
	return s, true
}
