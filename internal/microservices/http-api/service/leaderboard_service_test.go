package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookhub/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTopN_OrdersByPointsLevelRecency(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	a := createUser(t, store, "A")
	b := createUser(t, store, "B")
	c := createUser(t, store, "C")
	now := time.Now()
	forceRewards(t, store, a.ID, 50, 1, now)
	forceRewards(t, store, b.ID, 120, 2, now)
	forceRewards(t, store, c.ID, 120, 3, now.Add(-time.Hour))

	svc := NewLeaderboardService(store, nil, 100, 0, nil)
	top, err := svc.TopN(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{top[0].Name, top[1].Name, top[2].Name})
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, 3, top[2].Rank)
}

func TestTopN_RecencyBreaksTies(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	older := createUser(t, store, "older")
	newer := createUser(t, store, "newer")
	now := time.Now()
	forceRewards(t, store, older.ID, 100, 2, now.Add(-time.Minute))
	forceRewards(t, store, newer.ID, 100, 2, now)

	top, err := NewLeaderboardService(store, nil, 100, 0, nil).TopN(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "newer", top[0].Name)
}

func TestTopN_LimitValidationAndClamp(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	for i := 0; i < 5; i++ {
		createUser(t, store, fmt.Sprintf("user%d", i))
	}
	svc := NewLeaderboardService(store, nil, 3, 0, nil)

	_, err := svc.TopN(ctx, 0)
	assert.ErrorIs(t, err, ErrValidation)

	top, err := svc.TopN(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestTopN_EachUserOnceDuringConcurrentAwards(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, createUser(t, store, fmt.Sprintf("user%d", i)).ID)
	}
	ledger := NewLedger(store, nil, fastRetry, nil)
	svc := NewLeaderboardService(store, nil, 100, 0, nil)

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := ledger.AwardPoints(ctx, id, 3)
				assert.NoError(t, err)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		top, err := svc.TopN(ctx, 100)
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, e := range top {
			assert.False(t, seen[e.UserID], "duplicate user %s", e.UserID)
			seen[e.UserID] = true
		}
		assert.Len(t, seen, len(ids))
	}
	wg.Wait()
}

func TestTopN_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	cached := []models.LeaderboardEntry{
		{Rank: 1, UserID: "u1", Name: "one", Points: 300, Level: 4},
		{Rank: 2, UserID: "u2", Name: "two", Points: 200, Level: 3},
	}
	cache := new(MockLeaderboardCache)
	cache.On("Get", mock.Anything).Return(cached, true, nil)

	svc := NewLeaderboardService(newMemoryStore(t), cache, 100, time.Minute, nil)
	top, err := svc.TopN(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "u1", top[0].UserID)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTopN_FillsCacheOnMiss(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	u := createUser(t, store, "solo")
	forceRewards(t, store, u.ID, 40, 1, time.Now())

	cache := new(MockLeaderboardCache)
	cache.On("Get", mock.Anything).Return(nil, false, nil)
	cache.On("Generation", mock.Anything).Return(int64(7), nil)
	cache.On("Set", mock.Anything, int64(7), mock.MatchedBy(func(rows []models.LeaderboardEntry) bool {
		return len(rows) == 1 && rows[0].UserID == u.ID
	}), time.Minute).Return(true, nil)

	svc := NewLeaderboardService(store, cache, 100, time.Minute, nil)
	top, err := svc.TopN(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 40, top[0].Points)
	cache.AssertExpectations(t)
}

func TestTopN_CacheErrorFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	createUser(t, store, "solo")

	cache := new(MockLeaderboardCache)
	cache.On("Get", mock.Anything).Return(nil, false, errors.New("redis down"))
	cache.On("Generation", mock.Anything).Return(int64(0), errors.New("redis down"))

	top, err := NewLeaderboardService(store, cache, 100, time.Minute, nil).TopN(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)
	// without a generation there is nothing safe to fill
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_WithoutCacheIsNoop(t *testing.T) {
	svc := NewLeaderboardService(newMemoryStore(t), nil, 100, time.Minute, nil)
	assert.NoError(t, svc.Refresh(context.Background()))
}

// generationCache is an in-process LeaderboardCache with the same
// generation rules as the Redis one. beforeSet runs inside Set, after the
// caller has read the store.
type generationCache struct {
	mu        sync.Mutex
	gen       int64
	rows      []models.LeaderboardEntry
	ok        bool
	beforeSet func()
}

func (c *generationCache) Get(context.Context) ([]models.LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows, c.ok, nil
}

func (c *generationCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *generationCache) Set(_ context.Context, gen int64, rows []models.LeaderboardEntry, _ time.Duration) (bool, error) {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false, nil
	}
	c.rows, c.ok = rows, true
	return true, nil
}

func (c *generationCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.rows, c.ok = nil, false
	return nil
}

func TestTopN_FillRacingAnAwardDoesNotPinStaleSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	u := createUser(t, store, "racer")
	cache := &generationCache{}
	ledger := NewLedger(store, cache, fastRetry, nil)
	board := NewLeaderboardService(store, cache, 100, time.Hour, nil)

	// the award commits and invalidates between the store read and the fill
	cache.beforeSet = func() {
		_, err := ledger.AwardPoints(ctx, u.ID, 50)
		require.NoError(t, err)
	}

	first, err := board.TopN(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 0, first[0].Points)

	second, err := board.TopN(ctx, 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 50, second[0].Points)

	rw, err := ledger.GetRewards(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, rw.Points, second[0].Points)
}
