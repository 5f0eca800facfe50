package service

import (
	"context"
	"log/slog"
	"time"

	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/microservices/http-api/repository"
	"bookhub/internal/rewards"
	"bookhub/pkg/metrics"
)

// LeaderboardCache holds the ranked snapshot between reads. Every
// Invalidate bumps a generation counter so a fill that read the store before
// an award cannot overwrite the invalidation.
type LeaderboardCache interface {
	// Get returns the cached rows; ok is false on a miss.
	Get(ctx context.Context) (entries []models.LeaderboardEntry, ok bool, err error)
	// Generation returns the current invalidation counter. Take it before
	// reading the store.
	Generation(ctx context.Context) (int64, error)
	// Set stores entries only if the generation is still gen and reports
	// whether it did.
	Set(ctx context.Context, gen int64, entries []models.LeaderboardEntry, ttl time.Duration) (bool, error)
	Invalidate(ctx context.Context) error
}

// RewardsNotifier is told about every committed award. Implementations must
// not block.
type RewardsNotifier interface {
	RewardsChanged(ctx context.Context, change RewardsChange)
}

// RewardsChange describes one committed award.
type RewardsChange struct {
	UserID  string
	Amount  int
	Reason  string
	Rewards models.Rewards
	LevelUp bool
}

type RewardsService interface {
	// AwardPoints credits amount points and recomputes the level atomically.
	AwardPoints(ctx context.Context, userID string, amount int) (*models.Rewards, error)
	GetRewards(ctx context.Context, userID string) (*models.Rewards, error)
}

// Ledger is the only writer of points and levels.
type Ledger struct {
	store    repository.Store
	cache    LeaderboardCache
	notifier RewardsNotifier
	policy   RetryPolicy
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewLedger creates the rewards ledger. cache and m may be nil.
func NewLedger(store repository.Store, cache LeaderboardCache, policy RetryPolicy, m *metrics.Recorder) *Ledger {
	return &Ledger{
		store:   store,
		cache:   cache,
		policy:  policy.normalized(),
		metrics: m,
		now:     time.Now,
	}
}

var _ RewardsService = (*Ledger)(nil)

// SetNotifier registers n to hear about committed awards. Call it before the
// ledger is shared.
func (l *Ledger) SetNotifier(n RewardsNotifier) {
	l.notifier = n
}

func (l *Ledger) AwardPoints(ctx context.Context, userID string, amount int) (*models.Rewards, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	if amount < 0 {
		return nil, invalid("amount must not be negative, got %d", amount)
	}
	if amount == 0 {
		return l.GetRewards(ctx, userID)
	}
	return l.award(ctx, userID, amount, metrics.ReasonManual)
}

func (l *Ledger) GetRewards(ctx context.Context, userID string) (*models.Rewards, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	rw, err := l.store.Rewards().Get(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user "+userID)
	}
	return rw, nil
}

// award runs one credit in its own transaction.
func (l *Ledger) award(ctx context.Context, userID string, amount int, reason string) (*models.Rewards, error) {
	var out *models.Rewards
	err := inTx(ctx, l.store, l.policy, l.metrics, "award points", func(tx repository.Store) error {
		next, err := l.credit(ctx, tx, userID, amount)
		if err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.committed(ctx, userID, amount, reason, out)
	return out, nil
}

// credit adds amount to the user's ledger inside tx. The caller owns the
// transaction and must call committed once it succeeds.
func (l *Ledger) credit(ctx context.Context, tx repository.Store, userID string, amount int) (*models.Rewards, error) {
	cur, err := tx.Rewards().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user "+userID)
	}
	next := cur.Add(amount, l.now())
	if err := tx.Rewards().CompareAndSwap(ctx, userID, cur.Version, next); err != nil {
		return nil, notFound(err, "user "+userID)
	}
	return &next, nil
}

// committed runs the side effects of an award after its transaction.
func (l *Ledger) committed(ctx context.Context, userID string, amount int, reason string, after *models.Rewards) {
	l.metrics.Award(reason, amount)
	slog.Info("points_awarded", "user_id", userID, "amount", amount, "reason", reason)
	if l.cache != nil {
		if err := l.cache.Invalidate(ctx); err != nil {
			slog.Warn("leaderboard_invalidate_failed", "error", err)
		}
	}
	if l.notifier != nil && after != nil {
		l.notifier.RewardsChanged(ctx, RewardsChange{
			UserID:  userID,
			Amount:  amount,
			Reason:  reason,
			Rewards: *after,
			LevelUp: rewards.LevelFor(after.Points-amount) < after.Level,
		})
	}
}
