package services

import (
	"context"
	"log/slog"

	"finances-api/internal/dto"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/validation"

	"github.com/google/uuid"
)

// BudgetService manages budget terms. Spent is never written here: the ledger keeps it
// current, and the repository recomputes it when a replace moves the budget's scope.
type BudgetService struct {
	budgetRepo   repositories.BudgetRepositoryInterface
	accountRepo  repositories.AccountRepositoryInterface
	validator    *validation.LedgerValidator
	auditService AuditServiceInterface
	logger       *slog.Logger
}

func NewBudgetService(
	budgetRepo repositories.BudgetRepositoryInterface,
	accountRepo repositories.AccountRepositoryInterface,
	validator *validation.LedgerValidator,
	auditService AuditServiceInterface,
	logger *slog.Logger,
) BudgetServiceInterface {
	return &BudgetService{
		budgetRepo:   budgetRepo,
		accountRepo:  accountRepo,
		validator:    validator,
		auditService: auditService,
		logger:       logger,
	}
}

func (s *BudgetService) CreateBudget(ctx context.Context, requester Requester, req *dto.BudgetRequest) (*models.Budget, error) {
	input, err := s.checkRequest(ctx, requester, req, nil)
	if err != nil {
		return nil, err
	}

	budget := &models.Budget{
		AccountID:  input.AccountID,
		CategoryID: *input.CategoryID,
		Amount:     *input.Amount,
		StartDate:  *input.StartDate,
		EndDate:    *input.EndDate,
	}
	if err := s.budgetRepo.Create(ctx, budget); err != nil {
		return nil, err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionCreate, models.AuditResourceBudget, budget.ID, budgetMetadata(budget))
	return budget, nil
}

func (s *BudgetService) GetBudget(ctx context.Context, requester Requester, id uuid.UUID) (*models.Budget, error) {
	budget, err := s.budgetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccountAccess(ctx, requester, budget.AccountID); err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) ListBudgets(ctx context.Context, requester Requester) ([]models.Budget, error) {
	return s.budgetRepo.List(ctx, requester.Scope())
}

// ReplaceBudget swaps all terms of a budget. Spent is kept unless the category or period
// changes, in which case the repository recomputes it from the covered transactions.
func (s *BudgetService) ReplaceBudget(ctx context.Context, requester Requester, id uuid.UUID, req *dto.BudgetRequest) (*models.Budget, error) {
	budget, err := s.GetBudget(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	input, err := s.checkRequest(ctx, requester, req, &id)
	if err != nil {
		return nil, err
	}

	budget.AccountID = input.AccountID
	budget.CategoryID = *input.CategoryID
	budget.Amount = *input.Amount
	budget.StartDate = *input.StartDate
	budget.EndDate = *input.EndDate
	if err := s.budgetRepo.Update(ctx, budget); err != nil {
		return nil, err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionUpdate, models.AuditResourceBudget, id, budgetMetadata(budget))
	return budget, nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, requester Requester, id uuid.UUID) error {
	if _, err := s.GetBudget(ctx, requester, id); err != nil {
		return err
	}

	if err := s.budgetRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionDelete, models.AuditResourceBudget, id, nil)
	return nil
}

// checkRequest makes sure the requester owns the target account, then validates the request.
// A missing account is left to the validator.
func (s *BudgetService) checkRequest(ctx context.Context, requester Requester, req *dto.BudgetRequest, excludeID *uuid.UUID) (validation.BudgetInput, error) {
	input, err := req.ToInput()
	if err != nil {
		return input, err
	}

	if input.AccountID != nil {
		if err := s.checkAccountAccess(ctx, requester, input.AccountID); err != nil {
			return input, err
		}
	}

	if err := s.validator.ValidateBudget(ctx, input, excludeID); err != nil {
		return input, err
	}
	return input, nil
}

// checkAccountAccess allows admins everything. Owners need to hold the account;
// a budget without an account is admin only.
func (s *BudgetService) checkAccountAccess(ctx context.Context, requester Requester, accountID *uuid.UUID) error {
	if requester.IsAdmin {
		return nil
	}
	if accountID == nil {
		return ErrForbidden
	}

	account, err := s.accountRepo.GetByID(ctx, *accountID)
	if err != nil {
		return err
	}
	if !requester.CanAccess(account.OwnerID) {
		return ErrForbidden
	}
	return nil
}

func budgetMetadata(budget *models.Budget) map[string]interface{} {
	return map[string]interface{}{
		"category_id": budget.CategoryID.String(),
		"amount":      budget.Amount.StringFixed(2),
		"start_date":  budget.StartDate.Format(validation.DateLayout),
		"end_date":    budget.EndDate.Format(validation.DateLayout),
	}
}
