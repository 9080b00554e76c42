package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenKeyPrefix namespaces opaque tokens in Redis.
const TokenKeyPrefix = "auth:token:"

// TokenRecord is the JSON value stored under TokenKeyPrefix+token.
type TokenRecord struct {
	Subject   string     `json:"subject"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// tokenStore is the slice of *redis.Client the resolver needs.
type tokenStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisResolver resolves opaque tokens stored in Redis.
type RedisResolver struct {
	store tokenStore
	now   func() time.Time
}

// NewRedisResolver creates a resolver reading from client.
func NewRedisResolver(client *redis.Client) *RedisResolver {
	return newRedisResolver(client)
}

func newRedisResolver(store tokenStore) *RedisResolver {
	return &RedisResolver{store: store, now: time.Now}
}

func (r *RedisResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	raw, err := r.store.Get(ctx, TokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	var record TokenRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding token record: %w", err)
	}

	if record.ExpiresAt != nil && !r.now().Before(*record.ExpiresAt) {
		return nil, ErrExpired
	}

	return &Identity{Subject: record.Subject, Scopes: record.Scopes}, nil
}
