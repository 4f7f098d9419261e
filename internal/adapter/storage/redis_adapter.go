package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/core/domain"
)

const (
	cartKeyPrefix    = "cart:"
	sessionKeyPrefix = "session:"
)

type RedisAdapter struct {
	client     *redis.Client
	cartTTL    time.Duration
	sessionTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, cartTTL, sessionTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, cartTTL: cartTTL, sessionTTL: sessionTTL}
}

func (r *RedisAdapter) LoadCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptCache, err)
	}
	return cart, nil
}

func (r *RedisAdapter) SaveCart(ctx context.Context, sessionID string, cart domain.Cart) error {
	raw, err := json.Marshal(nonNil(cart))
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return r.client.Set(ctx, cartKeyPrefix+sessionID, raw, r.cartTTL).Err()
}

func (r *RedisAdapter) ClearCart(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKeyPrefix+sessionID).Err()
}

func (r *RedisAdapter) CreateSession(ctx context.Context, session domain.Session) (bool, error) {
	raw, err := json.Marshal(session)
	if err != nil {
		return false, fmt.Errorf("encode session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, sessionKeyPrefix+session.ID, raw, r.sessionTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (r *RedisAdapter) UpdateSession(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	err = r.client.SetArgs(ctx, sessionKeyPrefix+session.ID, raw, redis.SetArgs{
		Mode:    "XX",
		KeepTTL: true,
	}).Err()
	if errors.Is(err, redis.Nil) {
		return domain.ErrSessionNotFound
	}
	return err
}

func (r *RedisAdapter) DeleteSession(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}
