// Package scheduler runs the periodic maintenance jobs of the API server.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// jobTimeout bounds a single run of any job.
const jobTimeout = 30 * time.Second

// TokenPurger deletes refresh tokens that can no longer be used.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// LeaderboardRefresher reloads the cached leaderboard.
type LeaderboardRefresher interface {
	Refresh(ctx context.Context) error
}

// LimiterSweeper forgets idle rate limit buckets.
type LimiterSweeper interface {
	Sweep(now time.Time) int
}

// Jobs are the collaborators the scheduler drives. Nil fields are skipped.
type Jobs struct {
	Tokens      TokenPurger
	Leaderboard LeaderboardRefresher
	Limiter     LimiterSweeper
}

// Intervals between runs. Zero disables the job.
type Intervals struct {
	TokenPurge         time.Duration
	LeaderboardRefresh time.Duration
	LimiterSweep       time.Duration
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      Jobs
	intervals Intervals
}

// New creates a new scheduler instance
func New(jobs Jobs, intervals Intervals) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		jobs:      jobs,
		intervals: intervals,
	}
}

// Start registers every enabled job and begins running them in the background.
func (s *Scheduler) Start() error {
	if s.jobs.Tokens != nil && s.intervals.TokenPurge > 0 {
		if _, err := s.scheduler.Every(s.intervals.TokenPurge).Do(s.PurgeTokens); err != nil {
			return err
		}
	}
	if s.jobs.Leaderboard != nil && s.intervals.LeaderboardRefresh > 0 {
		if _, err := s.scheduler.Every(s.intervals.LeaderboardRefresh).Do(s.RefreshLeaderboard); err != nil {
			return err
		}
	}
	if s.jobs.Limiter != nil && s.intervals.LimiterSweep > 0 {
		if _, err := s.scheduler.Every(s.intervals.LimiterSweep).Do(s.SweepLimiters); err != nil {
			return err
		}
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler_started", "jobs", s.scheduler.Len())
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// PurgeTokens runs the refresh token cleanup once.
func (s *Scheduler) PurgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.jobs.Tokens.PurgeExpiredTokens(ctx)
	if err != nil {
		slog.Error("token_purge_failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("tokens_purged", "count", n)
	}
}

// RefreshLeaderboard re-warms the leaderboard cache once.
func (s *Scheduler) RefreshLeaderboard() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.jobs.Leaderboard.Refresh(ctx); err != nil {
		slog.Warn("leaderboard_refresh_failed", "error", err)
	}
}

// SweepLimiters drops idle rate limit buckets once.
func (s *Scheduler) SweepLimiters() {
	if n := s.jobs.Limiter.Sweep(time.Now()); n > 0 {
		slog.Debug("rate_limiters_swept", "count", n)
	}
}
