package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "wtest")
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return newRedisStore(t)
	})
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(client, "wtest")
	ctx := context.Background()

	ident, err := s.Add(ctx, "a@x.com", "hash-1")
	require.NoError(t, err)

	mr.Close()

	_, err = s.Add(ctx, "b@x.com", "hash-2")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.FindByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrUnavailable)
	err = s.Update(ctx, ident.ID, Fields{SessionHash: Set("sess-1")})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRedisStoreIndexKeysScoped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	a := NewRedis(client, "tenant-a")
	b := NewRedis(client, "tenant-b")

	_, err := a.Add(ctx, "a@x.com", "hash-1")
	require.NoError(t, err)

	// Same email under a different prefix is a distinct namespace.
	_, err = b.Add(ctx, "a@x.com", "hash-1")
	require.NoError(t, err)
	_, err = b.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
}
