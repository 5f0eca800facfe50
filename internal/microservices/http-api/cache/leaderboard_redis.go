package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookhub/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
)

const (
	// LeaderboardKey holds the JSON-encoded top of the leaderboard.
	LeaderboardKey = "leaderboard:top"
	// LeaderboardGenKey counts invalidations. Fills are conditional on it.
	LeaderboardGenKey = "leaderboard:gen"
)

// LeaderboardRedis caches the ranked leaderboard snapshot as one JSON value.
// A nil receiver or client is a no-op cache that always misses.
type LeaderboardRedis struct {
	client *redis.Client
	key    string
	genKey string
}

// NewRedisClient connects to the Redis server at url (redis://host:port/db).
func NewRedisClient(url, password string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func NewLeaderboardRedis(client *redis.Client) *LeaderboardRedis {
	return &LeaderboardRedis{client: client, key: LeaderboardKey, genKey: LeaderboardGenKey}
}

func (r *LeaderboardRedis) Get(ctx context.Context) ([]models.LeaderboardEntry, bool, error) {
	if r == nil || r.client == nil {
		return nil, false, nil
	}
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// a payload we cannot read is as good as a miss
		_ = r.client.Del(ctx, r.key).Err()
		return nil, false, nil
	}
	return entries, true, nil
}

func (r *LeaderboardRedis) Generation(ctx context.Context) (int64, error) {
	if r == nil || r.client == nil {
		return 0, nil
	}
	gen, err := r.client.Get(ctx, r.genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set writes the snapshot in a WATCH/MULTI transaction on the generation
// key, so an Invalidate that lands first, or during the write, wins.
func (r *LeaderboardRedis) Set(ctx context.Context, gen int64, entries []models.LeaderboardEntry, ttl time.Duration) (bool, error) {
	if r == nil || r.client == nil {
		return false, nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return false, err
	}

	stored := false
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, r.genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, raw, ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, r.genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// Invalidate bumps the generation and drops the snapshot atomically.
func (r *LeaderboardRedis) Invalidate(ctx context.Context) error {
	if r == nil || r.client == nil {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.genKey)
		pipe.Del(ctx, r.key)
		return nil
	})
	return err
}

func (r *LeaderboardRedis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
