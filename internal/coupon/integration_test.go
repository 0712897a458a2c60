package coupon

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/heritage-handlooms/checkout-api/pkg/db"
)

// TestPostgresStore runs the store contract against a real database.
// Set COUPON_TEST_POSTGRES_DSN to a disposable database to enable it.
func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	dsn := os.Getenv("COUPON_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skipping test: COUPON_TEST_POSTGRES_DSN not set")
	}

	conn, err := db.NewPostgresConnection(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store := NewPostgresStore(conn)
	require.NoError(t, store.EnsureSchema(context.Background()))

	runStoreContract(t, func(t *testing.T) Store {
		truncateCoupons(t, conn)
		return store
	})
}

func truncateCoupons(t *testing.T, conn *sql.DB) {
	t.Helper()
	_, err := conn.Exec(`TRUNCATE coupons`)
	require.NoError(t, err)
}

// TestRedisStore runs the store contract against a real Redis.
// Set COUPON_TEST_REDIS_ADDR to a disposable instance to enable it.
func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	addr := os.Getenv("COUPON_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("skipping test: COUPON_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	store := NewRedisStore(client)
	runStoreContract(t, func(t *testing.T) Store {
		clearRedisCoupons(t, client)
		return store
	})
}

func clearRedisCoupons(t *testing.T, client *redis.Client) {
	t.Helper()
	ctx := context.Background()

	iter := client.Scan(ctx, 0, "coupon:*", 100).Iterator()
	for iter.Next(ctx) {
		require.NoError(t, client.Del(ctx, iter.Val()).Err())
	}
	require.NoError(t, iter.Err())
	require.NoError(t, client.Del(ctx, redisIDIndex).Err())
}
