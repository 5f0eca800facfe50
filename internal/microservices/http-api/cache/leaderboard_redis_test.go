package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"bookhub/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardRedis_NilIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*LeaderboardRedis{nil, NewLeaderboardRedis(nil)} {
		rows, ok, err := c.Get(ctx)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, rows)
		gen, err := c.Generation(ctx)
		assert.NoError(t, err)
		stored, err := c.Set(ctx, gen, []models.LeaderboardEntry{{UserID: "u"}}, time.Minute)
		assert.NoError(t, err)
		assert.False(t, stored)
		assert.NoError(t, c.Invalidate(ctx))
		assert.NoError(t, c.Close())
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient("not-a-url", "")
	assert.Error(t, err)
}

// Needs a live Redis; skipped otherwise.
func TestLeaderboardRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })

	c := NewLeaderboardRedis(client)
	c.key = "test:" + t.Name()
	c.genKey = "test:gen:" + t.Name()
	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	rows := []models.LeaderboardEntry{
		{Rank: 1, UserID: "u1", Name: "one", Points: 120, Level: 2, LastAwardedAt: time.Now().UTC().Truncate(time.Second)},
	}
	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	stored, err := c.Set(ctx, gen, rows, time.Minute)
	require.NoError(t, err)
	require.True(t, stored)

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rows, got)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// a fill that started before the invalidation is discarded
	stored, err = c.Set(ctx, gen, rows, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	next, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
}
