package redis_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suministros-api/internal/application/reservation"
	rediscart "github.com/jhoicas/Suministros-api/internal/infrastructure/redis"
)

func getRedisClient(t *testing.T) *goredis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: time.Second})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis no disponible: %v", err)
	}
	return client
}

func nuevaClave(t *testing.T, client *goredis.Client) reservation.CartKey {
	key := reservation.CartKey{UnitID: "test-unit", UserID: t.Name()}
	client.Del(context.Background(), "cart:"+key.UnitID+":"+key.UserID)
	t.Cleanup(func() { client.Del(context.Background(), "cart:"+key.UnitID+":"+key.UserID) })
	return key
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserve
// ──────────────────────────────────────────────────────────────────────────────

func TestCartStore_Reserve_RespetaLimite(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	ctx := context.Background()
	store := rediscart.NewCartStore(client, time.Minute)
	key := nuevaClave(t, client)

	qty, ok, err := store.Reserve(ctx, key, "p1", 6, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 6, qty)

	qty, ok, err = store.Reserve(ctx, key, "p1", 6, 10)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 6, qty)

	qty, ok, err = store.Reserve(ctx, key, "p1", 4, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10, qty)
}

func TestCartStore_Reserve_ConcurrenteNoSuperaLimite(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	ctx := context.Background()
	store := rediscart.NewCartStore(client, time.Minute)
	key := nuevaClave(t, client)

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := store.Reserve(ctx, key, "p1", 1, 5); err == nil && ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), granted.Load())
	items, err := store.Items(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 5, items["p1"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Set / Remove / Clear
// ──────────────────────────────────────────────────────────────────────────────

func TestCartStore_SetRemoveClear(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()
	ctx := context.Background()
	store := rediscart.NewCartStore(client, time.Minute)
	key := nuevaClave(t, client)

	require.NoError(t, store.Set(ctx, key, "p1", 3))
	require.NoError(t, store.Set(ctx, key, "p2", 7))
	items, err := store.Items(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 3, "p2": 7}, items)

	require.NoError(t, store.Set(ctx, key, "p2", 0))
	require.NoError(t, store.Remove(ctx, key, "p1"))
	items, err = store.Items(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, store.Set(ctx, key, "p3", 1))
	require.NoError(t, store.Clear(ctx, key))
	items, err = store.Items(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, items)
}
