package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finances-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogRepository handles database operations for audit logs
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepositoryInterface {
	return &AuditLogRepository{
		db: db,
	}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log == nil {
		return errors.New("audit log cannot be nil")
	}

	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	return nil
}

// GetByOwnerID returns the most recent entries of an owner, newest first
func (r *AuditLogRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	var logs []*models.AuditLog

	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit logs for owner: %w", err)
	}

	return logs, nil
}

// GetByResource returns the history of one record, oldest first
func (r *AuditLogRepository) GetByResource(ctx context.Context, resource, resourceID string) ([]*models.AuditLog, error) {
	var logs []*models.AuditLog

	if err := r.db.WithContext(ctx).
		Where("resource = ? AND resource_id = ?", resource, resourceID).
		Order("created_at ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get audit logs for resource: %w", err)
	}

	return logs, nil
}

func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)

	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}
