package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finances-api/internal/dto"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/validation"

	"github.com/google/uuid"
)

const maxNameLength = 150

// OwnerService manages the principals that hold accounts
type OwnerService struct {
	ownerRepo       repositories.OwnerRepositoryInterface
	passwordService PasswordServiceInterface
	auditService    AuditServiceInterface
	metrics         MetricsRecorderInterface
	logger          *slog.Logger
}

func NewOwnerService(
	ownerRepo repositories.OwnerRepositoryInterface,
	passwordService PasswordServiceInterface,
	auditService AuditServiceInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) OwnerServiceInterface {
	return &OwnerService{
		ownerRepo:       ownerRepo,
		passwordService: passwordService,
		auditService:    auditService,
		metrics:         metrics,
		logger:          logger,
	}
}

// CreateOwner registers a new owner. Registration is open, so requester may be anonymous.
func (s *OwnerService) CreateOwner(ctx context.Context, requester Requester, req *dto.CreateOwnerRequest) (*models.Owner, error) {
	if !models.IsValidUsername(req.Username) {
		return nil, validation.FieldErrors{"username": "Enter a valid username."}
	}

	if err := s.passwordService.ValidatePassword(req.Password); err != nil {
		return nil, validation.FieldErrors{"password": err.Error()}
	}

	exists, err := s.ownerRepo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, repositories.ErrOwnerAlreadyExists
	}

	hash, err := s.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	owner := &models.Owner{
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		Role:         models.RoleOwner,
	}
	if err := s.ownerRepo.Create(ctx, owner); err != nil {
		return nil, err
	}

	actor := requester
	if actor.OwnerID == uuid.Nil {
		actor.OwnerID = owner.ID
	}
	s.auditService.LogChange(ctx, actor, models.AuditActionCreate, models.AuditResourceOwner, owner.ID, map[string]interface{}{
		"username": owner.Username,
	})
	s.metrics.IncrementCounter(MetricOwnerCreated, nil)

	s.logger.InfoContext(ctx, "owner registered", "owner_id", owner.ID, "username", owner.Username)
	return owner, nil
}

func (s *OwnerService) GetOwner(ctx context.Context, requester Requester, id uuid.UUID) (*models.Owner, error) {
	if !requester.CanAccess(&id) {
		return nil, ErrForbidden
	}
	return s.ownerRepo.GetByID(ctx, id)
}

// ListOwners is reserved to admins
func (s *OwnerService) ListOwners(ctx context.Context, requester Requester) ([]models.Owner, error) {
	if !requester.IsAdmin {
		return nil, ErrForbidden
	}
	return s.ownerRepo.List(ctx)
}

// PatchOwner applies a partial update. Username and email stay unique and a new
// password is stored as a hash.
func (s *OwnerService) PatchOwner(ctx context.Context, requester Requester, id uuid.UUID, patch dto.PatchRequest) (*models.Owner, error) {
	if !requester.CanAccess(&id) {
		return nil, ErrForbidden
	}

	current, err := s.ownerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	var username, email string
	var hashErr error

	appliers := map[string]patchApplier{
		"username": func(raw json.RawMessage) string {
			value, ok := decodeString(raw)
			if !ok {
				return InvalidStringMessage
			}
			if !models.IsValidUsername(value) {
				return "Enter a valid username."
			}
			username = value
			updates["username"] = value
			return ""
		},
		"email": func(raw json.RawMessage) string {
			value, ok := decodeString(raw)
			if !ok {
				return InvalidStringMessage
			}
			if !models.IsValidEmail(value) {
				return "Enter a valid email address."
			}
			email = value
			updates["email"] = value
			return ""
		},
		"first_name": func(raw json.RawMessage) string {
			var value string
			if msg := decodeNonBlank(raw, maxNameLength, &value); msg != "" {
				return msg
			}
			updates["first_name"] = strings.TrimSpace(value)
			return ""
		},
		"last_name": func(raw json.RawMessage) string {
			var value string
			if msg := decodeNonBlank(raw, maxNameLength, &value); msg != "" {
				return msg
			}
			updates["last_name"] = strings.TrimSpace(value)
			return ""
		},
		"password": func(raw json.RawMessage) string {
			value, ok := decodeString(raw)
			if !ok {
				return InvalidStringMessage
			}
			if err := s.passwordService.ValidatePassword(value); err != nil {
				return err.Error()
			}
			hash, err := s.passwordService.HashPassword(value)
			if err != nil {
				hashErr = err
				return ""
			}
			updates["password_hash"] = hash
			return ""
		},
	}

	if err := applyPatch(patch, appliers); err != nil {
		return nil, err
	}
	if hashErr != nil {
		return nil, fmt.Errorf("failed to hash password: %w", hashErr)
	}
	if len(updates) == 0 {
		return current, nil
	}

	exists, err := s.ownerRepo.ExistsByUsernameOrEmail(ctx, username, email, &id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, repositories.ErrOwnerAlreadyExists
	}

	owner, err := s.ownerRepo.UpdateFields(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionUpdate, models.AuditResourceOwner, id, map[string]interface{}{
		"fields": patchedFields(updates),
	})
	return owner, nil
}

// DeleteOwner removes the owner together with its accounts
func (s *OwnerService) DeleteOwner(ctx context.Context, requester Requester, id uuid.UUID) error {
	if !requester.CanAccess(&id) {
		return ErrForbidden
	}

	if err := s.ownerRepo.Delete(ctx, id); err != nil {
		return err
	}

	// the owner row is gone, so a self-deletion is recorded without an actor
	actor := requester
	if actor.OwnerID == id {
		actor.OwnerID = uuid.Nil
	}
	s.auditService.LogChange(ctx, actor, models.AuditActionDelete, models.AuditResourceOwner, id, nil)
	s.metrics.IncrementCounter(MetricOwnerDeleted, nil)

	s.logger.InfoContext(ctx, "owner deleted", "owner_id", id)
	return nil
}

func (s *OwnerService) GetOwnerActivity(ctx context.Context, requester Requester, id uuid.UUID, limit int) ([]*models.AuditLog, error) {
	if !requester.CanAccess(&id) {
		return nil, ErrForbidden
	}
	if _, err := s.ownerRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.auditService.GetOwnerActivity(ctx, id, limit)
}

// EnsureAdmin creates the bootstrap admin when no owner uses the username yet
func (s *OwnerService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.Owner, error) {
	existing, err := s.ownerRepo.GetByUsername(ctx, username)
	if err == nil {
		if !existing.IsAdmin() {
			s.logger.WarnContext(ctx, "bootstrap admin username is held by a regular owner", "username", username)
		}
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrOwnerNotFound) {
		return nil, err
	}

	hash, err := s.passwordService.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("invalid bootstrap admin password: %w", err)
	}

	admin := &models.Owner{
		Username:     username,
		Email:        email,
		FirstName:    "Admin",
		LastName:     "User",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.ownerRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.logger.InfoContext(ctx, "bootstrap admin created", "owner_id", admin.ID, "username", username)
	return admin, nil
}

func patchedFields(updates map[string]interface{}) []string {
	fields := make([]string, 0, len(updates))
	for field := range updates {
		if field == "password_hash" {
			field = "password"
		}
		fields = append(fields, field)
	}
	return fields
}
