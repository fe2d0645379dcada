package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps hashed refresh tokens
type TokenStore interface {
	Save(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error
	// Take returns the owner of a token and removes it, so each refresh token is single use.
	Take(ctx context.Context, tokenHash string) (uuid.UUID, error)
	Delete(ctx context.Context, tokenHash string) error
}

const refreshKeyPrefix = "refresh:"

// RedisTokenStore keeps refresh tokens under refresh:<sha256> with the token TTL
type RedisTokenStore struct {
	redis *redis.Client
}

// NewTokenStore returns a Redis store, or a disabled store when client is nil
func NewTokenStore(client *redis.Client) TokenStore {
	if client == nil {
		return disabledTokenStore{}
	}
	return &RedisTokenStore{redis: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.redis.Set(ctx, refreshKeyPrefix+tokenHash, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Take(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	val, err := s.redis.GetDel(ctx, refreshKeyPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load refresh token: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	return id, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, tokenHash string) error {
	return s.redis.Del(ctx, refreshKeyPrefix+tokenHash).Err()
}

// disabledTokenStore is used without Redis: tokens are issued but cannot be refreshed
type disabledTokenStore struct{}

func (disabledTokenStore) Save(context.Context, string, uuid.UUID, time.Duration) error { return nil }

func (disabledTokenStore) Take(context.Context, string) (uuid.UUID, error) {
	return uuid.Nil, ErrInvalidRefreshToken
}

func (disabledTokenStore) Delete(context.Context, string) error { return nil }
