package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finances-api/internal/models"
	"finances-api/internal/repositories"

	"github.com/google/uuid"
)

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

var (
	ErrInvalidOwnerID  = errors.New("invalid owner ID")
	ErrInvalidAuditLog = errors.New("invalid audit log")
)

var validAuditActions = map[string]bool{
	models.AuditActionLogin:        true,
	models.AuditActionLogout:       true,
	models.AuditActionFailedLogin:  true,
	models.AuditActionTokenRefresh: true,
	models.AuditActionCreate:       true,
	models.AuditActionUpdate:       true,
	models.AuditActionDelete:       true,
	models.AuditActionReconcile:    true,
}

// AuditService persists who changed what. Write failures are logged and never fail the caller.
type AuditService struct {
	repo   repositories.AuditLogRepositoryInterface
	logger *slog.Logger
}

func NewAuditService(repo repositories.AuditLogRepositoryInterface, logger *slog.Logger) AuditServiceInterface {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// ValidateActivityType validates that the action is one of the recorded kinds
func ValidateActivityType(action string) error {
	if !validAuditActions[action] {
		return fmt.Errorf("invalid activity type: %s", action)
	}
	return nil
}

func (s *AuditService) LogChange(ctx context.Context, requester Requester, action, resource string, resourceID uuid.UUID, metadata map[string]interface{}) {
	s.create(ctx, &models.AuditLog{
		OwnerID:    requester.ownerRef(),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID.String(),
		IPAddress:  requester.IPAddress,
		UserAgent:  requester.UserAgent,
		Metadata:   metadata,
	})
}

func (s *AuditService) LogAuthEvent(ctx context.Context, ownerID *uuid.UUID, action, ipAddress, userAgent string, metadata map[string]interface{}) {
	resourceID := ""
	if ownerID != nil {
		resourceID = ownerID.String()
	}

	s.create(ctx, &models.AuditLog{
		OwnerID:    ownerID,
		Action:     action,
		Resource:   "auth",
		ResourceID: resourceID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Metadata:   metadata,
	})
}

// GetOwnerActivity returns the newest entries of an owner. The limit is clamped to MaxActivityLimit.
func (s *AuditService) GetOwnerActivity(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	if ownerID == uuid.Nil {
		return nil, ErrInvalidOwnerID
	}

	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	return s.repo.GetByOwnerID(ctx, ownerID, limit)
}

// GetResourceHistory returns every recorded change of one record, oldest first
func (s *AuditService) GetResourceHistory(ctx context.Context, resource string, resourceID uuid.UUID) ([]*models.AuditLog, error) {
	return s.repo.GetByResource(ctx, resource, resourceID.String())
}

func (s *AuditService) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(ctx, age)
}

func (s *AuditService) create(ctx context.Context, log *models.AuditLog) {
	if err := ValidateActivityType(log.Action); err != nil {
		s.logger.ErrorContext(ctx, "refusing audit log", "error", err)
		return
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.ErrorContext(ctx, "failed to create audit log",
			"error", err,
			"action", log.Action,
			"resource", log.Resource,
			"resource_id", log.ResourceID)
	}
}
