package repository

import (
	"context"
	"time"

	"bookhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// RefreshTokenRepository handles database operations for refresh tokens
type RefreshTokenRepository interface {
	Create(ctx context.Context, refreshToken *models.RefreshToken) error
	FindByToken(ctx context.Context, tokenString string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenID string) error
	Delete(ctx context.Context, tokenID string) error
	// DeleteExpired removes tokens that expired before cutoff or were revoked.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// refreshTokenRepository is the GORM implementation of RefreshTokenRepository
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new instance of RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, refreshToken *models.RefreshToken) error {
	return translate("create refresh token", r.db.WithContext(ctx).Create(refreshToken).Error)
}

// FindByToken looks up the refresh token by its token string
func (r *refreshTokenRepository) FindByToken(ctx context.Context, tokenString string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ?", tokenString).First(&refreshToken).Error; err != nil {
		return nil, translate("find refresh token", err)
	}
	return &refreshToken, nil
}

// Revoke marks a refresh token as revoked
func (r *refreshTokenRepository) Revoke(ctx context.Context, tokenID string) error {
	return translate("revoke refresh token", r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ?", tokenID).
		Update("revoked", true).Error)
}

func (r *refreshTokenRepository) Delete(ctx context.Context, tokenID string) error {
	return translate("delete refresh token", r.db.WithContext(ctx).
		Where("id = ?", tokenID).
		Delete(&models.RefreshToken{}).Error)
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked = ?", cutoff, true).
		Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, translate("purge refresh tokens", res.Error)
	}
	return res.RowsAffected, nil
}
