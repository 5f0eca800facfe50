package repository

import (
	"context"

	"bookhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RewardsRepository reads and writes the rewards columns of a user.
type RewardsRepository interface {
	Get(ctx context.Context, userID string) (*models.Rewards, error)
	// GetForUpdate is Get plus a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, userID string) (*models.Rewards, error)
	// CompareAndSwap writes next only if the stored version still equals
	// expectedVersion. ErrConflict otherwise, ErrNotFound for unknown users.
	CompareAndSwap(ctx context.Context, userID string, expectedVersion int64, next models.Rewards) error
	// Top returns up to n users in leaderboard order, read in one statement.
	Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error)
}

type rewardsRepository struct {
	db *gorm.DB
}

func NewRewardsRepository(db *gorm.DB) RewardsRepository {
	return &rewardsRepository{db: db}
}

func (r *rewardsRepository) Get(ctx context.Context, userID string) (*models.Rewards, error) {
	return r.get(r.db.WithContext(ctx), userID)
}

func (r *rewardsRepository) GetForUpdate(ctx context.Context, userID string) (*models.Rewards, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *rewardsRepository) get(q *gorm.DB, userID string) (*models.Rewards, error) {
	var user models.User
	if err := q.First(&user, "id = ?", userID).Error; err != nil {
		return nil, translate("get rewards", err)
	}
	return &user.Rewards, nil
}

func (r *rewardsRepository) CompareAndSwap(ctx context.Context, userID string, expectedVersion int64, next models.Rewards) error {
	// points and level land in the same UPDATE so readers never see one
	// without the other.
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND rewards_version = ?", userID, expectedVersion).
		Updates(map[string]any{
			"rewards_points":          next.Points,
			"rewards_level":           next.Level,
			"rewards_version":         next.Version,
			"rewards_last_awarded_at": next.LastAwardedAt,
		})
	if res.Error != nil {
		return translate("swap rewards", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return translate("swap rewards", err)
	}
	if count == 0 {
		return translate("swap rewards", gorm.ErrRecordNotFound)
	}
	return ErrConflict
}

func (r *rewardsRepository) Top(ctx context.Context, n int) ([]models.LeaderboardEntry, error) {
	var rows []models.LeaderboardEntry
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id, username, rewards_points, rewards_level, rewards_last_awarded_at").
		Order("rewards_points DESC, rewards_level DESC, rewards_last_awarded_at DESC, id ASC").
		Limit(n).
		Scan(&rows).Error; err != nil {
		return nil, translate("top rewards", err)
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
