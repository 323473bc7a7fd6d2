package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finances-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrOwnerAlreadyExists = errors.New("owner already exists")
)

// OwnerRepository handles database operations for owners
type OwnerRepository struct {
	db *gorm.DB
}

func NewOwnerRepository(db *gorm.DB) OwnerRepositoryInterface {
	return &OwnerRepository{
		db: db,
	}
}

func (r *OwnerRepository) Create(ctx context.Context, owner *models.Owner) error {
	if owner == nil {
		return errors.New("owner cannot be nil")
	}

	if err := r.db.WithContext(ctx).Create(owner).Error; err != nil {
		if isDuplicateKeyError(err) {
			return ErrOwnerAlreadyExists
		}
		return fmt.Errorf("failed to create owner: %w", err)
	}

	return nil
}

func (r *OwnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	var owner models.Owner
	if err := r.db.WithContext(ctx).First(&owner, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to get owner by ID: %w", err)
	}

	return &owner, nil
}

func (r *OwnerRepository) GetByUsername(ctx context.Context, username string) (*models.Owner, error) {
	var owner models.Owner
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to get owner by username: %w", err)
	}

	return &owner, nil
}

// ExistsByUsernameOrEmail reports whether another owner already uses the username or the email.
// Empty values are ignored.
func (r *OwnerRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID *uuid.UUID) (bool, error) {
	if username == "" && email == "" {
		return false, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Owner{})
	switch {
	case username != "" && email != "":
		query = query.Where("username = ? OR LOWER(email) = ?", username, strings.ToLower(email))
	case username != "":
		query = query.Where("username = ?", username)
	default:
		query = query.Where("LOWER(email) = ?", strings.ToLower(email))
	}

	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check owner uniqueness: %w", err)
	}

	return count > 0, nil
}

func (r *OwnerRepository) List(ctx context.Context) ([]models.Owner, error) {
	var owners []models.Owner
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&owners).Error; err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}

	return owners, nil
}

// UpdateFields applies a column map and returns the reloaded owner
func (r *OwnerRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Owner, error) {
	db := r.db.WithContext(ctx)

	result := db.Model(&models.Owner{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return nil, ErrOwnerAlreadyExists
		}
		return nil, fmt.Errorf("failed to update owner: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, ErrOwnerNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *OwnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Owner{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete owner: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrOwnerNotFound
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "23505")
}

func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "violates foreign key") ||
		strings.Contains(errStr, "FOREIGN KEY constraint") ||
		strings.Contains(errStr, "23503")
}
