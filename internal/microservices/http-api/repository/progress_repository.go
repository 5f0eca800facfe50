package repository

import (
	"context"

	"bookhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type progressRepository struct {
	db *gorm.DB
}

// ProgressRepository stores one progress record per (user, book).
type ProgressRepository interface {
	// GetForUpdate returns the record and, inside a transaction, locks it
	// until commit. It returns nil, nil when the user never opened the book.
	GetForUpdate(ctx context.Context, userID, bookID string) (*models.Progress, error)
	Get(ctx context.Context, userID, bookID string) (*models.Progress, error)
	// Insert creates a new record. ErrConflict if one appeared concurrently.
	Insert(ctx context.Context, progress *models.Progress) error
	Update(ctx context.Context, progress *models.Progress) error
	ListByUser(ctx context.Context, userID string) ([]models.Progress, error)
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) GetForUpdate(ctx context.Context, userID, bookID string) (*models.Progress, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID, bookID)
}

func (r *progressRepository) Get(ctx context.Context, userID, bookID string) (*models.Progress, error) {
	return r.find(r.db.WithContext(ctx), userID, bookID)
}

func (r *progressRepository) find(q *gorm.DB, userID, bookID string) (*models.Progress, error) {
	var list []models.Progress
	if err := q.Where("user_id = ? AND book_id = ?", userID, bookID).Limit(1).Find(&list).Error; err != nil {
		return nil, translate("get progress", err)
	}
	if len(list) == 0 {
		return nil, nil // No progress yet
	}
	return &list[0], nil
}

func (r *progressRepository) Insert(ctx context.Context, progress *models.Progress) error {
	return translate("insert progress", r.db.WithContext(ctx).Create(progress).Error)
}

func (r *progressRepository) Update(ctx context.Context, progress *models.Progress) error {
	res := r.db.WithContext(ctx).
		Model(&models.Progress{}).
		Where("user_id = ? AND book_id = ?", progress.UserID, progress.BookID).
		Updates(map[string]any{
			"percentage":   progress.Percentage,
			"status":       progress.Status,
			"completed_at": progress.CompletedAt,
			"updated_at":   progress.UpdatedAt,
		})
	if res.Error != nil {
		return translate("update progress", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("update progress", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *progressRepository) ListByUser(ctx context.Context, userID string) ([]models.Progress, error) {
	var list []models.Progress
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&list).Error; err != nil {
		return nil, translate("list progress", err)
	}
	return list, nil
}
