package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/microservices/http-api/repository"
	"bookhub/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

// DefaultLeaderboardLimit caps TopN when no limit is configured.
const DefaultLeaderboardLimit = 100

type LeaderboardService interface {
	// TopN returns up to n users ranked by points, level, then most recent award.
	TopN(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
	// Refresh reloads the cached snapshot from the store.
	Refresh(ctx context.Context) error
}

type leaderboardService struct {
	store    repository.Store
	cache    LeaderboardCache
	maxLimit int
	ttl      time.Duration
	metrics  *metrics.Recorder
	group    singleflight.Group
}

// NewLeaderboardService reads from the store, through cache when it is not nil.
func NewLeaderboardService(store repository.Store, cache LeaderboardCache, maxLimit int, ttl time.Duration, m *metrics.Recorder) LeaderboardService {
	if maxLimit < 1 {
		maxLimit = DefaultLeaderboardLimit
	}
	return &leaderboardService{
		store:    store,
		cache:    cache,
		maxLimit: maxLimit,
		ttl:      ttl,
		metrics:  m,
	}
}

func (s *leaderboardService) TopN(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	if n < 1 {
		return nil, invalid("limit must be at least 1, got %d", n)
	}
	n = min(n, s.maxLimit)

	if s.cache == nil {
		s.metrics.LeaderboardRead()
		return s.store.Rewards().Top(ctx, n)
	}

	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(rows[:min(n, len(rows))]), nil
}

// snapshot returns the full top-maxLimit rows, from the cache when possible.
// Concurrent misses share one store read.
func (s *leaderboardService) snapshot(ctx context.Context) ([]models.LeaderboardEntry, error) {
	rows, ok, err := s.cache.Get(ctx)
	switch {
	case err != nil:
		s.metrics.CacheLookup("error")
		slog.Warn("leaderboard_cache_get_failed", "error", err)
	case ok:
		s.metrics.CacheLookup("hit")
		return rows, nil
	default:
		s.metrics.CacheLookup("miss")
	}

	v, err, _ := s.group.Do("top", func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.LeaderboardEntry), nil
}

// load reads the store and fills the cache unless an award invalidated it
// while the read was in flight.
func (s *leaderboardService) load(ctx context.Context) ([]models.LeaderboardEntry, error) {
	gen, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		slog.Warn("leaderboard_cache_generation_failed", "error", genErr)
	}

	s.metrics.LeaderboardRead()
	rows, err := s.store.Rewards().Top(ctx, s.maxLimit)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return rows, nil
	}
	stored, err := s.cache.Set(ctx, gen, rows, s.ttl)
	switch {
	case err != nil:
		slog.Warn("leaderboard_cache_set_failed", "error", err)
	case !stored:
		slog.Debug("leaderboard_cache_fill_skipped", "generation", gen)
	}
	return rows, nil
}

func (s *leaderboardService) Refresh(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	_, err := s.load(ctx)
	return err
}
