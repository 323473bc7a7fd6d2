package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finances-api/internal/models"
	"finances-api/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCategoryExists    = errors.New("the category already exists")
	ErrBudgetExists      = errors.New("the budget already exists")
	ErrCategoryHasBudget = errors.New("this category already has a budget")

	// shared with the ledger so callers match one sentinel whichever layer rejects first
	ErrInsufficientBalance = models.ErrInsufficientBalance
	ErrExceedsBudget       = models.ErrExceedsBudget
)

const (
	NegativeBalanceMessage  = "must not be negative"
	NegativeBudgetMessage   = "The budget value must not be negative."
	NonPositiveMessage      = "Must be greater than zero."
	InvalidBudgetEndMessage = "End date must not be before start date."
)

// AccountInput is a proposed account write. Nil fields were not sent.
type AccountInput struct {
	OwnerID *uuid.UUID
	Name    *string
	Balance *decimal.Decimal
}

// BudgetInput is a proposed budget write. Nil fields were not sent.
type BudgetInput struct {
	AccountID  *uuid.UUID
	CategoryID *uuid.UUID
	Amount     *decimal.Decimal
	StartDate  *time.Time
	EndDate    *time.Time
}

// TransactionInput is a proposed transaction write. Nil fields were not sent.
type TransactionInput struct {
	AccountID   *uuid.UUID
	CategoryID  *uuid.UUID
	Amount      *decimal.Decimal
	Description *string
}

// LedgerValidator checks ledger writes against required fields and business rules.
// Nothing is written: every check runs before the ledger is touched.
type LedgerValidator struct {
	accounts   repositories.AccountRepositoryInterface
	categories repositories.CategoryRepositoryInterface
	budgets    repositories.BudgetRepositoryInterface
}

func NewLedgerValidator(
	accounts repositories.AccountRepositoryInterface,
	categories repositories.CategoryRepositoryInterface,
	budgets repositories.BudgetRepositoryInterface,
) *LedgerValidator {
	return &LedgerValidator{
		accounts:   accounts,
		categories: categories,
		budgets:    budgets,
	}
}

// ValidateAccount requires an owner and a name on create. The balance must never be negative.
func (v *LedgerValidator) ValidateAccount(ctx context.Context, input AccountInput, isPatch bool) error {
	if input.Balance != nil && input.Balance.IsNegative() {
		return FieldErrors{"balance": NegativeBalanceMessage}
	}

	if isPatch {
		if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
			return Required("name")
		}
		return nil
	}

	if input.OwnerID == nil || *input.OwnerID == uuid.Nil {
		return Required("owner")
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return Required("name")
	}

	return nil
}

// ValidateCategory requires a name no other category uses
func (v *LedgerValidator) ValidateCategory(ctx context.Context, name string, excludeID *uuid.UUID) error {
	if strings.TrimSpace(name) == "" {
		return Required("name")
	}

	exists, err := v.categories.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return ErrCategoryExists
	}

	return nil
}

// ValidateBudget checks required fields in the order account, category, amount, then the
// period, rejects exact duplicates and a second budget for the same category.
// excludeID is the budget being replaced, if any.
func (v *LedgerValidator) ValidateBudget(ctx context.Context, input BudgetInput, excludeID *uuid.UUID) error {
	switch {
	case input.AccountID == nil || *input.AccountID == uuid.Nil:
		return Required("account")
	case input.CategoryID == nil || *input.CategoryID == uuid.Nil:
		return Required("category")
	case input.Amount == nil:
		return Required("amount")
	case input.StartDate == nil:
		return Required("start_date")
	case input.EndDate == nil:
		return Required("end_date")
	}

	if input.Amount.IsNegative() {
		return FieldErrors{"amount": NegativeBudgetMessage}
	}
	if input.EndDate.Before(*input.StartDate) {
		return FieldErrors{"end_date": InvalidBudgetEndMessage}
	}

	if _, err := v.accounts.GetByID(ctx, *input.AccountID); err != nil {
		return err
	}
	if _, err := v.categories.GetByID(ctx, *input.CategoryID); err != nil {
		return err
	}

	candidate := &models.Budget{
		CategoryID: *input.CategoryID,
		AccountID:  input.AccountID,
		Amount:     *input.Amount,
		StartDate:  *input.StartDate,
		EndDate:    *input.EndDate,
	}
	duplicate, err := v.budgets.ExistsWithTerms(ctx, candidate, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check duplicate budget: %w", err)
	}
	if duplicate {
		return ErrBudgetExists
	}

	count, err := v.budgets.CountForCategory(ctx, *input.CategoryID, excludeID)
	if err != nil {
		return fmt.Errorf("failed to count category budgets: %w", err)
	}
	if count > 0 {
		return ErrCategoryHasBudget
	}

	return nil
}

// ValidateTransaction checks a new transaction. Required fields are reported in the order
// amount, description, account, category. The amount may not exceed the account balance nor
// the cap of the category's budget.
func (v *LedgerValidator) ValidateTransaction(ctx context.Context, input TransactionInput) error {
	switch {
	case input.Amount == nil || input.Amount.IsZero():
		return Required("amount")
	case input.Description == nil || strings.TrimSpace(*input.Description) == "":
		return Required("description")
	case input.AccountID == nil || *input.AccountID == uuid.Nil:
		return Required("account")
	case input.CategoryID == nil || *input.CategoryID == uuid.Nil:
		return Required("category")
	}

	if !input.Amount.IsPositive() {
		return FieldErrors{"amount": NonPositiveMessage}
	}

	account, err := v.accounts.GetByID(ctx, *input.AccountID)
	if err != nil {
		return err
	}
	if _, err := v.categories.GetByID(ctx, *input.CategoryID); err != nil {
		return err
	}

	if !account.CanCover(*input.Amount) {
		return ErrInsufficientBalance
	}

	budget, err := v.budgets.FirstForCategory(ctx, *input.CategoryID)
	if err != nil {
		return fmt.Errorf("failed to load category budget: %w", err)
	}
	if budget != nil && budget.Exceeded(*input.Amount) {
		return ErrExceedsBudget
	}

	return nil
}

// ValidateTransactionChanges checks only the fields present in an update.
// Balance effects are checked by the ledger under lock.
func (v *LedgerValidator) ValidateTransactionChanges(ctx context.Context, input TransactionInput) error {
	if input.Amount != nil && !input.Amount.IsPositive() {
		return FieldErrors{"amount": NonPositiveMessage}
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return Required("description")
	}
	if input.CategoryID != nil {
		if *input.CategoryID == uuid.Nil {
			return Required("category")
		}
		if _, err := v.categories.GetByID(ctx, *input.CategoryID); err != nil {
			return err
		}
	}
	return nil
}
