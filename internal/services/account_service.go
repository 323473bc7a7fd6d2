package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"finances-api/internal/dto"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountService manages accounts. The balance is only set directly on create and by an
// explicit PATCH; every other change goes through the ledger.
type AccountService struct {
	accountRepo  repositories.AccountRepositoryInterface
	ownerRepo    repositories.OwnerRepositoryInterface
	validator    *validation.LedgerValidator
	auditService AuditServiceInterface
	logger       *slog.Logger
}

func NewAccountService(
	accountRepo repositories.AccountRepositoryInterface,
	ownerRepo repositories.OwnerRepositoryInterface,
	validator *validation.LedgerValidator,
	auditService AuditServiceInterface,
	logger *slog.Logger,
) AccountServiceInterface {
	return &AccountService{
		accountRepo:  accountRepo,
		ownerRepo:    ownerRepo,
		validator:    validator,
		auditService: auditService,
		logger:       logger,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, requester Requester, req *dto.CreateAccountRequest) (*models.Account, error) {
	if err := s.validator.ValidateAccount(ctx, req.ToInput(), false); err != nil {
		return nil, err
	}

	if !requester.CanAccess(req.Owner) {
		return nil, ErrForbidden
	}
	if _, err := s.ownerRepo.GetByID(ctx, *req.Owner); err != nil {
		return nil, err
	}

	account := &models.Account{
		OwnerID: req.Owner,
		Name:    *req.Name,
	}
	if req.Balance != nil {
		account.Balance = *req.Balance
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionCreate, models.AuditResourceAccount, account.ID, map[string]interface{}{
		"balance": account.Balance.StringFixed(2),
	})
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, requester Requester, id uuid.UUID) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(account.OwnerID) {
		return nil, ErrForbidden
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, requester Requester) ([]models.Account, error) {
	return s.accountRepo.List(ctx, requester.Scope())
}

// PatchAccount updates name and balance. Any other field is rejected.
func (s *AccountService) PatchAccount(ctx context.Context, requester Requester, id uuid.UUID, patch dto.PatchRequest) (*models.Account, error) {
	account, err := s.GetAccount(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	var input validation.AccountInput
	appliers := map[string]patchApplier{
		"name": func(raw json.RawMessage) string {
			var name string
			if msg := decodeNonBlank(raw, models.MaxAccountNameLength, &name); msg != "" {
				return msg
			}
			input.Name = &name
			return ""
		},
		"balance": func(raw json.RawMessage) string {
			var balance decimal.Decimal
			if msg := decodeMoney(raw, &balance); msg != "" {
				return msg
			}
			input.Balance = &balance
			return ""
		},
	}

	if err := applyPatch(patch, appliers); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateAccount(ctx, input, true); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Balance != nil {
		updates["balance"] = *input.Balance
	}
	if len(updates) == 0 {
		return account, nil
	}

	updated, err := s.accountRepo.UpdateFields(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	metadata := map[string]interface{}{}
	if input.Balance != nil {
		metadata["balance_before"] = account.Balance.StringFixed(2)
		metadata["balance_after"] = updated.Balance.StringFixed(2)
	}
	if input.Name != nil {
		metadata["name"] = updated.Name
	}
	s.auditService.LogChange(ctx, requester, models.AuditActionUpdate, models.AuditResourceAccount, id, metadata)

	return updated, nil
}

// DeleteAccount removes the account with its transactions and budgets
func (s *AccountService) DeleteAccount(ctx context.Context, requester Requester, id uuid.UUID) error {
	if _, err := s.GetAccount(ctx, requester, id); err != nil {
		return err
	}

	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditService.LogChange(ctx, requester, models.AuditActionDelete, models.AuditResourceAccount, id, nil)
	s.logger.InfoContext(ctx, "account deleted", "account_id", id)
	return nil
}
