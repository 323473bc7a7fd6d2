package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finances-api/internal/models"

	"gorm.io/gorm"
)

type blacklistedTokenRepository struct {
	db *gorm.DB
}

func NewBlacklistedTokenRepository(db *gorm.DB) BlacklistedTokenRepositoryInterface {
	return &blacklistedTokenRepository{db: db}
}

func (r *blacklistedTokenRepository) Create(ctx context.Context, token *models.BlacklistedToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether the access token with this JTI was logged out
func (r *blacklistedTokenRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	var token models.BlacklistedToken
	err := r.db.WithContext(ctx).Where("jti = ?", jti).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return true, nil
}

func (r *blacklistedTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", time.Now().UTC()).Delete(&models.BlacklistedToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired blacklist entries: %w", result.Error)
	}
	return result.RowsAffected, nil
}
