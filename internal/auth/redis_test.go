package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/user-api/internal/errs"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenStore map[string]string

func (f fakeTokenStore) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

type failingTokenStore struct{}

func (failingTokenStore) Get(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", errors.New("connection refused"))
}

func TestRedisResolver_Resolve(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	store := fakeTokenStore{
		TokenKeyPrefix + "live":    `{"subject":"alice","scopes":["users:read"],"expiresAt":"2026-10-19T00:00:00Z"}`,
		TokenKeyPrefix + "forever": `{"subject":"svc","scopes":["users:read","users:write"]}`,
		TokenKeyPrefix + "stale":   `{"subject":"bob","scopes":[],"expiresAt":"2026-10-18T11:59:59Z"}`,
		TokenKeyPrefix + "corrupt": `{"subject":`,
	}
	r := newRedisResolver(store)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	identity, err := r.Resolve(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, &Identity{Subject: "alice", Scopes: []string{"users:read"}}, identity)

	identity, err = r.Resolve(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "svc", identity.Subject)

	_, err = r.Resolve(ctx, "stale")
	assert.ErrorIs(t, err, ErrExpired)

	_, err = r.Resolve(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = r.Resolve(ctx, "corrupt")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredential)
}

func TestRedisResolver_StoreFailureIsClassified(t *testing.T) {
	a := NewAuthenticator(newRedisResolver(failingTokenStore{}))

	_, err := a.Authenticate(context.Background(), "any")

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindAuthInternal, e.Kind)
	assert.Equal(t, "Authentication failed", e.Message)
}
