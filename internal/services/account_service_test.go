package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"finances-api/internal/dto"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/repositories/repository_mocks"
	"finances-api/internal/validation"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	mockAccounts   *repository_mocks.MockAccountRepositoryInterface
	mockOwners     *repository_mocks.MockOwnerRepositoryInterface
	mockCategories *repository_mocks.MockCategoryRepositoryInterface
	mockBudgets    *repository_mocks.MockBudgetRepositoryInterface
	mockAudit      *repository_mocks.MockAuditLogRepositoryInterface
	service        AccountServiceInterface
	ctx            context.Context

	owner     *models.Owner
	account   *models.Account
	requester Requester
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockAccounts = repository_mocks.NewMockAccountRepositoryInterface(s.ctrl)
	s.mockOwners = repository_mocks.NewMockOwnerRepositoryInterface(s.ctrl)
	s.mockCategories = repository_mocks.NewMockCategoryRepositoryInterface(s.ctrl)
	s.mockBudgets = repository_mocks.NewMockBudgetRepositoryInterface(s.ctrl)
	s.mockAudit = repository_mocks.NewMockAuditLogRepositoryInterface(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewAccountService(
		s.mockAccounts,
		s.mockOwners,
		validation.NewLedgerValidator(s.mockAccounts, s.mockCategories, s.mockBudgets),
		NewAuditService(s.mockAudit, logger),
		logger,
	)
	s.ctx = context.Background()

	s.owner = &models.Owner{
		ID:        uuid.New(),
		Username:  gofakeit.Username(),
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Role:      models.RoleOwner,
	}
	s.account = &models.Account{
		ID:      uuid.New(),
		OwnerID: &s.owner.ID,
		Name:    "Current",
		Balance: decimal.NewFromInt(100),
	}
	s.requester = Requester{OwnerID: s.owner.ID}
}

func (s *AccountServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AccountServiceTestSuite) expectAudit(action string) {
	s.mockAudit.EXPECT().Create(s.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, log *models.AuditLog) error {
		s.Equal(action, log.Action)
		s.Equal(models.AuditResourceAccount, log.Resource)
		return nil
	})
}

func patchOf(fields map[string]interface{}) dto.PatchRequest {
	patch := dto.PatchRequest{}
	for field, value := range fields {
		raw, _ := json.Marshal(value)
		patch[field] = raw
	}
	return patch
}

func (s *AccountServiceTestSuite) TestCreateAccount_Success() {
	name := "Savings"
	balance := decimal.RequireFromString("250.50")

	s.mockOwners.EXPECT().GetByID(s.ctx, s.owner.ID).Return(s.owner, nil)
	s.mockAccounts.EXPECT().Create(s.ctx, gomock.Any()).DoAndReturn(func(_ context.Context, account *models.Account) error {
		s.Equal(name, account.Name)
		s.True(account.Balance.Equal(balance))
		account.ID = uuid.New()
		return nil
	})
	s.expectAudit(models.AuditActionCreate)

	account, err := s.service.CreateAccount(s.ctx, s.requester, &dto.CreateAccountRequest{
		Owner:   &s.owner.ID,
		Name:    &name,
		Balance: &balance,
	})

	s.NoError(err)
	s.Equal(&s.owner.ID, account.OwnerID)
}

func (s *AccountServiceTestSuite) TestCreateAccount_DefaultsToZeroBalance() {
	name := "Wallet"

	s.mockOwners.EXPECT().GetByID(s.ctx, s.owner.ID).Return(s.owner, nil)
	s.mockAccounts.EXPECT().Create(s.ctx, gomock.Any()).Return(nil)
	s.expectAudit(models.AuditActionCreate)

	account, err := s.service.CreateAccount(s.ctx, s.requester, &dto.CreateAccountRequest{Owner: &s.owner.ID, Name: &name})

	s.NoError(err)
	s.True(account.Balance.IsZero())
}

func (s *AccountServiceTestSuite) TestCreateAccount_RequiresOwner() {
	name := "Wallet"

	account, err := s.service.CreateAccount(s.ctx, s.requester, &dto.CreateAccountRequest{Name: &name})

	s.Equal(validation.Required("owner"), err)
	s.Nil(account)
}

func (s *AccountServiceTestSuite) TestCreateAccount_NegativeBalance() {
	name := "Wallet"
	balance := decimal.NewFromInt(-1)

	_, err := s.service.CreateAccount(s.ctx, s.requester, &dto.CreateAccountRequest{Owner: &s.owner.ID, Name: &name, Balance: &balance})

	s.Equal(validation.FieldErrors{"balance": validation.NegativeBalanceMessage}, err)
}

func (s *AccountServiceTestSuite) TestCreateAccount_ForAnotherOwnerIsForbidden() {
	name := "Wallet"
	other := uuid.New()

	_, err := s.service.CreateAccount(s.ctx, s.requester, &dto.CreateAccountRequest{Owner: &other, Name: &name})

	s.ErrorIs(err, ErrForbidden)
}

func (s *AccountServiceTestSuite) TestCreateAccount_AdminForUnknownOwner() {
	name := "Wallet"
	other := uuid.New()

	s.mockOwners.EXPECT().GetByID(s.ctx, other).Return(nil, repositories.ErrOwnerNotFound)

	_, err := s.service.CreateAccount(s.ctx, Requester{OwnerID: uuid.New(), IsAdmin: true}, &dto.CreateAccountRequest{Owner: &other, Name: &name})

	s.ErrorIs(err, repositories.ErrOwnerNotFound)
}

func (s *AccountServiceTestSuite) TestGetAccount_Ownership() {
	s.mockAccounts.EXPECT().GetByID(s.ctx, s.account.ID).Return(s.account, nil).Times(3)

	account, err := s.service.GetAccount(s.ctx, s.requester, s.account.ID)
	s.NoError(err)
	s.Equal(s.account, account)

	_, err = s.service.GetAccount(s.ctx, Requester{OwnerID: uuid.New()}, s.account.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.GetAccount(s.ctx, Requester{OwnerID: uuid.New(), IsAdmin: true}, s.account.ID)
	s.NoError(err)
}

func (s *AccountServiceTestSuite) TestListAccounts_Scope() {
	s.mockAccounts.EXPECT().List(s.ctx, &s.owner.ID).Return([]models.Account{*s.account}, nil)
	s.mockAccounts.EXPECT().List(s.ctx, nil).Return([]models.Account{*s.account, {ID: uuid.New()}}, nil)

	accounts, err := s.service.ListAccounts(s.ctx, s.requester)
	s.NoError(err)
	s.Len(accounts, 1)

	accounts, err = s.service.ListAccounts(s.ctx, Requester{IsAdmin: true})
	s.NoError(err)
	s.Len(accounts, 2)
}

func (s *AccountServiceTestSuite) TestPatchAccount_NameAndBalance() {
	s.mockAccounts.EXPECT().GetByID(s.ctx, s.account.ID).Return(s.account, nil)
	s.mockAccounts.EXPECT().UpdateFields(s.ctx, s.account.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, fields map[string]interface{}) (*models.Account, error) {
			s.Equal("Renamed", fields["name"])
			s.True(fields["balance"].(decimal.Decimal).Equal(decimal.RequireFromString("42.10")))
			return &models.Account{ID: s.account.ID, OwnerID: s.account.OwnerID, Name: "Renamed", Balance: decimal.RequireFromString("42.10")}, nil
		})
	s.expectAudit(models.AuditActionUpdate)

	account, err := s.service.PatchAccount(s.ctx, s.requester, s.account.ID, patchOf(map[string]interface{}{
		"name":    "Renamed",
		"balance": "42.10",
	}))

	s.NoError(err)
	s.Equal("Renamed", account.Name)
}

func (s *AccountServiceTestSuite) TestPatchAccount_UnknownFieldIsRejected() {
	s.mockAccounts.EXPECT().GetByID(s.ctx, s.account.ID).Return(s.account, nil)

	_, err := s.service.PatchAccount(s.ctx, s.requester, s.account.ID, patchOf(map[string]interface{}{
		"name":  "Renamed",
		"owner": uuid.New().String(),
	}))

	s.Equal(validation.FieldErrors{"owner": UnknownFieldMessage}, err)
}

func (s *AccountServiceTestSuite) TestPatchAccount_NegativeBalance() {
	s.mockAccounts.EXPECT().GetByID(s.ctx, s.account.ID).Return(s.account, nil)

	_, err := s.service.PatchAccount(s.ctx, s.requester, s.account.ID, patchOf(map[string]interface{}{"balance": -5}))

	s.Equal(validation.FieldErrors{"balance": validation.NegativeBalanceMessage}, err)
}

func (s *AccountServiceTestSuite) TestPatchAccount_InvalidValues() {
	s.mockAccounts.EXPECT().GetByID(s.ctx, s.account.ID).Return(s.account, nil)

	_, err := s.service.PatchAccount(s.ctx, s.requester, s.account.ID, patchOf(map[string]interface{}{
		"name":    "   ",
		"balance": "ten",
	}))

	fieldErrors, ok := validation.AsFieldErrors(err)
	s.Require().True(ok)
	s.Equal(BlankFieldMessage, fieldErrors["name"])
	s.Equal(InvalidNumberMessage, fieldErrors["balance"])
}

func (s *AccountServiceTestSuite) TestPatchAccount_EmptyPatchReturnsCurrent() {
	s.mockAccounts.EXPECT().GetByID(s.ctx, s.account.ID).Return(s.account, nil)

	account, err := s.service.PatchAccount(s.ctx, s.requester, s.account.ID, dto.PatchRequest{})

	s.NoError(err)
	s.Equal(s.account, account)
}

func (s *AccountServiceTestSuite) TestDeleteAccount() {
	s.mockAccounts.EXPECT().GetByID(s.ctx, s.account.ID).Return(s.account, nil)
	s.mockAccounts.EXPECT().Delete(s.ctx, s.account.ID).Return(nil)
	s.expectAudit(models.AuditActionDelete)

	s.NoError(s.service.DeleteAccount(s.ctx, s.requester, s.account.ID))
}

func (s *AccountServiceTestSuite) TestDeleteAccount_NotFound() {
	s.mockAccounts.EXPECT().GetByID(s.ctx, s.account.ID).Return(nil, repositories.ErrAccountNotFound)

	s.ErrorIs(s.service.DeleteAccount(s.ctx, s.requester, s.account.ID), repositories.ErrAccountNotFound)
}
