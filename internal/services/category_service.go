package services

import (
	"context"
	"log/slog"
	"strings"

	"finances-api/internal/dto"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/validation"

	"github.com/google/uuid"
)

// CategoryService manages the shared category list. Any owner may add categories,
// only admins rename or remove them.
type CategoryService struct {
	categoryRepo repositories.CategoryRepositoryInterface
	validator    *validation.LedgerValidator
	auditService AuditServiceInterface
	logger       *slog.Logger
}

func NewCategoryService(
	categoryRepo repositories.CategoryRepositoryInterface,
	validator *validation.LedgerValidator,
	auditService AuditServiceInterface,
	logger *slog.Logger,
) CategoryServiceInterface {
	return &CategoryService{
		categoryRepo: categoryRepo,
		validator:    validator,
		auditService: auditService,
		logger:       logger,
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, requester Requester, req *dto.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.validator.ValidateCategory(ctx, name, nil); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionCreate, models.AuditResourceCategory, category.ID, map[string]interface{}{
		"name": category.Name,
	})
	return category, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

// UpdateCategory renames a category. The new name may not belong to another category.
func (s *CategoryService) UpdateCategory(ctx context.Context, requester Requester, id uuid.UUID, req *dto.CategoryRequest) (*models.Category, error) {
	if !requester.IsAdmin {
		return nil, ErrForbidden
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.validator.ValidateCategory(ctx, name, &id); err != nil {
		return nil, err
	}

	previous := category.Name
	category.Name = name
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionUpdate, models.AuditResourceCategory, id, map[string]interface{}{
		"name_before": previous,
		"name_after":  name,
	})
	return category, nil
}

// DeleteCategory removes the category with its transactions and budgets
func (s *CategoryService) DeleteCategory(ctx context.Context, requester Requester, id uuid.UUID) error {
	if !requester.IsAdmin {
		return ErrForbidden
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionDelete, models.AuditResourceCategory, id, nil)
	s.logger.InfoContext(ctx, "category deleted", "category_id", id)
	return nil
}
