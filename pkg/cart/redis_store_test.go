package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storekit/pkg/cart"
)

func setupRedisStore(t *testing.T, ttl time.Duration) (*cart.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cart.NewRedisStore(client, ttl), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := setupRedisStore(t, time.Hour)
	ctx := context.Background()

	snap := cart.Snapshot{
		Items:         []cart.Line{{ID: "L1", ProductID: "P1", Quantity: 2, UnitPriceCents: 1000}},
		Coupon:        &cart.Coupon{Code: "SAVE10", DiscountPercent: 10},
		SubtotalCents: 2000,
	}
	require.NoError(t, store.Save(ctx, "guest-1", snap))

	loaded, err := store.Load(ctx, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestRedisStore_NotFound(t *testing.T) {
	t.Parallel()

	store, _ := setupRedisStore(t, time.Hour)
	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	t.Parallel()

	store, _ := setupRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "guest-1", cart.Snapshot{}))
	require.NoError(t, store.Delete(ctx, "guest-1"))

	_, err := store.Load(ctx, "guest-1")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}

func TestRedisStore_SetsTTL(t *testing.T) {
	t.Parallel()

	store, mr := setupRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "guest-1", cart.Snapshot{}))
	assert.Equal(t, time.Hour, mr.TTL("cart:guest:guest-1"))

	// Expired guest carts disappear.
	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, "guest-1")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}

func TestRedisStore_CorruptedValue(t *testing.T) {
	t.Parallel()

	store, mr := setupRedisStore(t, 0)
	require.NoError(t, mr.Set("cart:guest:guest-1", "not-json"))

	_, err := store.Load(context.Background(), "guest-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, cart.ErrSnapshotNotFound)
}

func TestConnectRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	client, err := cart.ConnectRedis(context.Background(), cart.RedisConfig{
		ConnectionURL:  "redis://" + mr.Addr(),
		ConnectTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestConnectRedis_BadURL(t *testing.T) {
	t.Parallel()

	_, err := cart.ConnectRedis(context.Background(), cart.RedisConfig{
		ConnectionURL: "://not-a-url",
	})
	assert.Error(t, err)
}
