package memory

import (
	"context"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
)

type LocalCarts struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func NewLocalCarts() *LocalCarts {
	return &LocalCarts{carts: make(map[string]domain.Cart)}
}

func (l *LocalCarts) LoadCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append(domain.Cart{}, l.carts[sessionID]...), nil
}

func (l *LocalCarts) SaveCart(ctx context.Context, sessionID string, cart domain.Cart) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.carts[sessionID] = append(domain.Cart{}, cart...)
	return nil
}

func (l *LocalCarts) ClearCart(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.carts, sessionID)
	return nil
}

type Sessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]domain.Session)}
}

func (s *Sessions) CreateSession(ctx context.Context, session domain.Session) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return false, nil
	}
	s.sessions[session.ID] = session
	return true, nil
}

func (s *Sessions) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *Sessions) UpdateSession(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *Sessions) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
