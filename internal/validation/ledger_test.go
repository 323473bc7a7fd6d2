package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/repositories/repository_mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerValidatorSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	accounts   *repository_mocks.MockAccountRepositoryInterface
	categories *repository_mocks.MockCategoryRepositoryInterface
	budgets    *repository_mocks.MockBudgetRepositoryInterface
	validator  *LedgerValidator
	ctx        context.Context

	accountID  uuid.UUID
	categoryID uuid.UUID
}

func TestLedgerValidatorSuite(t *testing.T) {
	suite.Run(t, new(LedgerValidatorSuite))
}

func (s *LedgerValidatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.accounts = repository_mocks.NewMockAccountRepositoryInterface(s.ctrl)
	s.categories = repository_mocks.NewMockCategoryRepositoryInterface(s.ctrl)
	s.budgets = repository_mocks.NewMockBudgetRepositoryInterface(s.ctrl)
	s.validator = NewLedgerValidator(s.accounts, s.categories, s.budgets)
	s.ctx = context.Background()
	s.accountID = uuid.New()
	s.categoryID = uuid.New()
}

func (s *LedgerValidatorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LedgerValidatorSuite) requireFieldError(err error, field, msg string) {
	fieldErrors, ok := AsFieldErrors(err)
	s.Require().True(ok, "expected FieldErrors, got %v", err)
	s.Len(fieldErrors, 1)
	s.Equal(msg, fieldErrors[field])
}

var errStore = errors.New("store unavailable")

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// Account

func (s *LedgerValidatorSuite) TestValidateAccount() {
	owner := uuid.New()
	name := "Wallet"

	s.requireFieldError(s.validator.ValidateAccount(s.ctx, AccountInput{Name: &name}, false), "owner", RequiredMessage)
	s.requireFieldError(s.validator.ValidateAccount(s.ctx, AccountInput{OwnerID: &owner}, false), "name", RequiredMessage)
	s.requireFieldError(s.validator.ValidateAccount(s.ctx, AccountInput{OwnerID: &owner, Name: &name, Balance: dec(-1)}, false), "balance", NegativeBalanceMessage)
	s.NoError(s.validator.ValidateAccount(s.ctx, AccountInput{OwnerID: &owner, Name: &name, Balance: dec(0)}, false))
}

func (s *LedgerValidatorSuite) TestValidateAccount_Patch() {
	blank := ""

	s.NoError(s.validator.ValidateAccount(s.ctx, AccountInput{Balance: dec(10)}, true), "owner is not required on patch")
	s.requireFieldError(s.validator.ValidateAccount(s.ctx, AccountInput{Balance: dec(-5)}, true), "balance", NegativeBalanceMessage)
	s.requireFieldError(s.validator.ValidateAccount(s.ctx, AccountInput{Name: &blank}, true), "name", RequiredMessage)
}

// Category

func (s *LedgerValidatorSuite) TestValidateCategory() {
	s.requireFieldError(s.validator.ValidateCategory(s.ctx, "  ", nil), "name", RequiredMessage)

	s.categories.EXPECT().ExistsByName(s.ctx, "Food", nil).Return(true, nil)
	s.ErrorIs(s.validator.ValidateCategory(s.ctx, "Food", nil), ErrCategoryExists)

	self := uuid.New()
	s.categories.EXPECT().ExistsByName(s.ctx, "Food", &self).Return(false, nil)
	s.NoError(s.validator.ValidateCategory(s.ctx, "Food", &self))
}

func (s *LedgerValidatorSuite) TestValidateCategory_StoreFailure() {
	s.categories.EXPECT().ExistsByName(s.ctx, "Food", nil).Return(false, errStore)
	s.ErrorIs(s.validator.ValidateCategory(s.ctx, "Food", nil), errStore)
}

// Budget

func (s *LedgerValidatorSuite) budgetInput() BudgetInput {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	return BudgetInput{
		AccountID:  &s.accountID,
		CategoryID: &s.categoryID,
		Amount:     dec(500),
		StartDate:  &start,
		EndDate:    &end,
	}
}

func (s *LedgerValidatorSuite) TestValidateBudget_RequiredInOrder() {
	tests := []struct {
		name   string
		mutate func(in *BudgetInput)
		field  string
	}{
		{"everything missing", func(in *BudgetInput) { *in = BudgetInput{} }, "account"},
		{"category and amount missing", func(in *BudgetInput) { in.CategoryID, in.Amount = nil, nil }, "category"},
		{"amount missing", func(in *BudgetInput) { in.Amount = nil }, "amount"},
		{"start missing", func(in *BudgetInput) { in.StartDate = nil }, "start_date"},
		{"end missing", func(in *BudgetInput) { in.EndDate = nil }, "end_date"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			input := s.budgetInput()
			tt.mutate(&input)
			s.requireFieldError(s.validator.ValidateBudget(s.ctx, input, nil), tt.field, RequiredMessage)
		})
	}
}

func (s *LedgerValidatorSuite) TestValidateBudget_NegativeAndPeriod() {
	input := s.budgetInput()
	input.Amount = dec(-1)
	s.requireFieldError(s.validator.ValidateBudget(s.ctx, input, nil), "amount", NegativeBudgetMessage)

	input = s.budgetInput()
	before := input.StartDate.AddDate(0, 0, -1)
	input.EndDate = &before
	s.requireFieldError(s.validator.ValidateBudget(s.ctx, input, nil), "end_date", InvalidBudgetEndMessage)
}

func (s *LedgerValidatorSuite) TestValidateBudget_UnknownReferences() {
	s.accounts.EXPECT().GetByID(s.ctx, s.accountID).Return(nil, repositories.ErrAccountNotFound)
	s.ErrorIs(s.validator.ValidateBudget(s.ctx, s.budgetInput(), nil), repositories.ErrAccountNotFound)

	s.accounts.EXPECT().GetByID(s.ctx, s.accountID).Return(&models.Account{ID: s.accountID}, nil)
	s.categories.EXPECT().GetByID(s.ctx, s.categoryID).Return(nil, repositories.ErrCategoryNotFound)
	s.ErrorIs(s.validator.ValidateBudget(s.ctx, s.budgetInput(), nil), repositories.ErrCategoryNotFound)
}

func (s *LedgerValidatorSuite) expectBudgetReferences() {
	s.accounts.EXPECT().GetByID(s.ctx, s.accountID).Return(&models.Account{ID: s.accountID}, nil)
	s.categories.EXPECT().GetByID(s.ctx, s.categoryID).Return(&models.Category{ID: s.categoryID, Name: "Food"}, nil)
}

func (s *LedgerValidatorSuite) TestValidateBudget_Duplicate() {
	s.expectBudgetReferences()
	s.budgets.EXPECT().ExistsWithTerms(s.ctx, gomock.Any(), nil).
		DoAndReturn(func(_ context.Context, b *models.Budget, _ *uuid.UUID) (bool, error) {
			s.Equal(s.categoryID, b.CategoryID)
			s.True(b.Amount.Equal(decimal.NewFromInt(500)))
			return true, nil
		})

	s.ErrorIs(s.validator.ValidateBudget(s.ctx, s.budgetInput(), nil), ErrBudgetExists)
}

func (s *LedgerValidatorSuite) TestValidateBudget_CategoryAlreadyBudgeted() {
	s.expectBudgetReferences()
	s.budgets.EXPECT().ExistsWithTerms(s.ctx, gomock.Any(), nil).Return(false, nil)
	s.budgets.EXPECT().CountForCategory(s.ctx, s.categoryID, nil).Return(int64(1), nil)

	s.ErrorIs(s.validator.ValidateBudget(s.ctx, s.budgetInput(), nil), ErrCategoryHasBudget)
}

func (s *LedgerValidatorSuite) TestValidateBudget_ReplacingItself() {
	self := uuid.New()
	s.expectBudgetReferences()
	s.budgets.EXPECT().ExistsWithTerms(s.ctx, gomock.Any(), &self).Return(false, nil)
	s.budgets.EXPECT().CountForCategory(s.ctx, s.categoryID, &self).Return(int64(0), nil)

	s.NoError(s.validator.ValidateBudget(s.ctx, s.budgetInput(), &self))
}

func (s *LedgerValidatorSuite) TestValidateBudget_ZeroAmountAllowed() {
	input := s.budgetInput()
	input.Amount = dec(0)
	s.expectBudgetReferences()
	s.budgets.EXPECT().ExistsWithTerms(s.ctx, gomock.Any(), nil).Return(false, nil)
	s.budgets.EXPECT().CountForCategory(s.ctx, s.categoryID, nil).Return(int64(0), nil)

	s.NoError(s.validator.ValidateBudget(s.ctx, input, nil))
}

// Transaction

func (s *LedgerValidatorSuite) transactionInput(amount int64) TransactionInput {
	description := "Groceries"
	return TransactionInput{
		AccountID:   &s.accountID,
		CategoryID:  &s.categoryID,
		Amount:      dec(amount),
		Description: &description,
	}
}

func (s *LedgerValidatorSuite) expectTransactionReferences(balance int64) {
	s.accounts.EXPECT().GetByID(s.ctx, s.accountID).
		Return(&models.Account{ID: s.accountID, Balance: decimal.NewFromInt(balance)}, nil)
	s.categories.EXPECT().GetByID(s.ctx, s.categoryID).Return(&models.Category{ID: s.categoryID}, nil)
}

func (s *LedgerValidatorSuite) TestValidateTransaction_RequiredInOrder() {
	empty := ""
	tests := []struct {
		name   string
		mutate func(in *TransactionInput)
		field  string
	}{
		{"everything missing", func(in *TransactionInput) { *in = TransactionInput{} }, "amount"},
		{"zero amount counts as missing", func(in *TransactionInput) { in.Amount = dec(0) }, "amount"},
		{"description missing", func(in *TransactionInput) { in.Description = nil; in.AccountID = nil }, "description"},
		{"description empty", func(in *TransactionInput) { in.Description = &empty }, "description"},
		{"account missing", func(in *TransactionInput) { in.AccountID = nil; in.CategoryID = nil }, "account"},
		{"category missing", func(in *TransactionInput) { in.CategoryID = nil }, "category"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			input := s.transactionInput(100)
			tt.mutate(&input)
			s.requireFieldError(s.validator.ValidateTransaction(s.ctx, input), tt.field, RequiredMessage)
		})
	}
}

func (s *LedgerValidatorSuite) TestValidateTransaction_NegativeAmount() {
	s.requireFieldError(s.validator.ValidateTransaction(s.ctx, s.transactionInput(-5)), "amount", NonPositiveMessage)
}

func (s *LedgerValidatorSuite) TestValidateTransaction_InsufficientBalance() {
	s.expectTransactionReferences(100)

	s.ErrorIs(s.validator.ValidateTransaction(s.ctx, s.transactionInput(101)), ErrInsufficientBalance)
}

func (s *LedgerValidatorSuite) TestValidateTransaction_ExceedsBudgetCap() {
	s.expectTransactionReferences(1000)
	s.budgets.EXPECT().FirstForCategory(s.ctx, s.categoryID).
		Return(&models.Budget{Amount: decimal.NewFromInt(150), Spent: decimal.Zero}, nil)

	s.ErrorIs(s.validator.ValidateTransaction(s.ctx, s.transactionInput(200)), ErrExceedsBudget)
}

func (s *LedgerValidatorSuite) TestValidateTransaction_CapNotRemaining() {
	s.expectTransactionReferences(1000)
	s.budgets.EXPECT().FirstForCategory(s.ctx, s.categoryID).
		Return(&models.Budget{Amount: decimal.NewFromInt(150), Spent: decimal.NewFromInt(140)}, nil)

	s.NoError(s.validator.ValidateTransaction(s.ctx, s.transactionInput(100)))
}

func (s *LedgerValidatorSuite) TestValidateTransaction_NoBudget() {
	s.expectTransactionReferences(1000)
	s.budgets.EXPECT().FirstForCategory(s.ctx, s.categoryID).Return(nil, nil)

	s.NoError(s.validator.ValidateTransaction(s.ctx, s.transactionInput(1000)))
}

func (s *LedgerValidatorSuite) TestValidateTransaction_UnknownAccount() {
	s.accounts.EXPECT().GetByID(s.ctx, s.accountID).Return(nil, repositories.ErrAccountNotFound)

	s.ErrorIs(s.validator.ValidateTransaction(s.ctx, s.transactionInput(10)), repositories.ErrAccountNotFound)
}

func (s *LedgerValidatorSuite) TestValidateTransactionChanges() {
	blank := " "
	s.requireFieldError(s.validator.ValidateTransactionChanges(s.ctx, TransactionInput{Amount: dec(0)}), "amount", NonPositiveMessage)
	s.requireFieldError(s.validator.ValidateTransactionChanges(s.ctx, TransactionInput{Description: &blank}), "description", RequiredMessage)

	s.categories.EXPECT().GetByID(s.ctx, s.categoryID).Return(nil, repositories.ErrCategoryNotFound)
	s.ErrorIs(s.validator.ValidateTransactionChanges(s.ctx, TransactionInput{CategoryID: &s.categoryID}), repositories.ErrCategoryNotFound)

	s.NoError(s.validator.ValidateTransactionChanges(s.ctx, TransactionInput{}))
}
