package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"finances-api/internal/dto"
	"finances-api/internal/errors"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/services"
	"finances-api/internal/services/service_mocks"
	"finances-api/internal/validation"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// AccountHandlerSuite defines the test suite for AccountHandler
type AccountHandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *service_mocks.MockAccountServiceInterface
	handler     *AccountHandler
	echo        *echo.Echo
	ownerID     uuid.UUID
}

func TestAccountHandlerSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerSuite))
}

func (s *AccountHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = service_mocks.NewMockAccountServiceInterface(s.ctrl)
	s.handler = NewAccountHandler(s.mockService)
	s.echo = newTestEcho()
	s.ownerID = uuid.New()
}

func (s *AccountHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AccountHandlerSuite) TestCreateAccount() {
	name := gofakeit.Company()
	owner := s.ownerID
	body := map[string]interface{}{"owner": owner, "name": name, "balance": "150.25"}

	s.mockService.EXPECT().
		CreateAccount(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, requester services.Requester, req *dto.CreateAccountRequest) (*models.Account, error) {
			s.Equal(s.ownerID, requester.OwnerID)
			s.False(requester.IsAdmin)
			s.Equal(name, *req.Name)
			s.True(req.Balance.Equal(decimal.RequireFromString("150.25")))
			return &models.Account{ID: uuid.New(), OwnerID: &owner, Name: name, Balance: *req.Balance}, nil
		})

	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/accounts", body)
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.CreateAccount(c))
	s.Equal(http.StatusCreated, rec.Code)

	var account models.Account
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &account))
	s.Equal(name, account.Name)
	s.Equal("150.25", account.Balance.StringFixed(2))
}

func (s *AccountHandlerSuite) TestCreateAccount_Unauthenticated() {
	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/accounts", map[string]string{"name": "Wallet"})

	s.NoError(s.handler.CreateAccount(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthMissingToken), decodeErrorResponse(rec).Error.Code)
}

func (s *AccountHandlerSuite) TestCreateAccount_FieldErrors() {
	s.mockService.EXPECT().
		CreateAccount(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, validation.FieldErrors{
			"owner":   validation.RequiredMessage,
			"balance": validation.NegativeBalanceMessage,
		})

	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/accounts", map[string]interface{}{"name": "Wallet", "balance": -5})
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.CreateAccount(c))
	s.Equal(http.StatusBadRequest, rec.Code)

	resp := decodeErrorResponse(rec)
	s.Equal(string(errors.ValidationGeneral), resp.Error.Code)
	s.Equal([]string{
		"balance: " + validation.NegativeBalanceMessage,
		"owner: " + validation.RequiredMessage,
	}, resp.Error.Details)
}

func (s *AccountHandlerSuite) TestCreateAccount_NameTooLong() {
	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/accounts", map[string]string{"name": gofakeit.LetterN(66)})
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.CreateAccount(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(decodeErrorResponse(rec).Error.Details[0], "name")
}

func (s *AccountHandlerSuite) TestCreateAccount_MalformedBody() {
	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/accounts", `{"name":`)
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.CreateAccount(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *AccountHandlerSuite) TestGetAccount() {
	testCases := []struct {
		name       string
		id         string
		setupMock  func(id uuid.UUID)
		expectCode int
		errorCode  errors.ErrorCode
	}{
		{
			name: "found",
			id:   uuid.NewString(),
			setupMock: func(id uuid.UUID) {
				s.mockService.EXPECT().GetAccount(gomock.Any(), gomock.Any(), id).
					Return(&models.Account{ID: id, Name: "Checking", Balance: decimal.NewFromInt(10)}, nil)
			},
			expectCode: http.StatusOK,
		},
		{
			name: "not found",
			id:   uuid.NewString(),
			setupMock: func(id uuid.UUID) {
				s.mockService.EXPECT().GetAccount(gomock.Any(), gomock.Any(), id).
					Return(nil, repositories.ErrAccountNotFound)
			},
			expectCode: http.StatusNotFound,
			errorCode:  errors.AccountNotFound,
		},
		{
			name: "another owner",
			id:   uuid.NewString(),
			setupMock: func(id uuid.UUID) {
				s.mockService.EXPECT().GetAccount(gomock.Any(), gomock.Any(), id).
					Return(nil, services.ErrForbidden)
			},
			expectCode: http.StatusForbidden,
			errorCode:  errors.AuthInsufficientPermission,
		},
		{
			name:       "invalid id",
			id:         "not-a-uuid",
			setupMock:  func(uuid.UUID) {},
			expectCode: http.StatusBadRequest,
			errorCode:  errors.ValidationInvalidFormat,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			if id, err := uuid.Parse(tc.id); err == nil {
				tc.setupMock(id)
			}

			c, rec := newRequestContext(s.echo, http.MethodGet, "/api/accounts/"+tc.id, nil)
			authenticate(c, s.ownerID, false)
			withPathParams(c, map[string]string{"id": tc.id})

			s.NoError(s.handler.GetAccount(c))
			s.Equal(tc.expectCode, rec.Code)
			if tc.errorCode != "" {
				s.Equal(string(tc.errorCode), decodeErrorResponse(rec).Error.Code)
			}
		})
	}
}

func (s *AccountHandlerSuite) TestListAccounts() {
	s.mockService.EXPECT().ListAccounts(gomock.Any(), gomock.Any()).Return([]models.Account{
		{ID: uuid.New(), Name: "Checking"},
		{ID: uuid.New(), Name: "Savings"},
	}, nil)

	c, rec := newRequestContext(s.echo, http.MethodGet, "/api/accounts", nil)
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.ListAccounts(c))
	s.Equal(http.StatusOK, rec.Code)

	var accounts []models.Account
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &accounts))
	s.Len(accounts, 2)
}

func (s *AccountHandlerSuite) TestListAccounts_Empty() {
	s.mockService.EXPECT().ListAccounts(gomock.Any(), gomock.Any()).Return([]models.Account{}, nil)

	c, rec := newRequestContext(s.echo, http.MethodGet, "/api/accounts", nil)
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.ListAccounts(c))
	s.Equal(http.StatusOK, rec.Code)

	var resp dto.MessageResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(dto.NoRecords("accounts").Message, resp.Message)
}

func (s *AccountHandlerSuite) TestPatchAccount() {
	id := uuid.New()

	s.mockService.EXPECT().
		PatchAccount(gomock.Any(), gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ services.Requester, _ uuid.UUID, patch dto.PatchRequest) (*models.Account, error) {
			s.JSONEq(`"Holiday fund"`, string(patch["name"]))
			s.JSONEq(`42.5`, string(patch["balance"]))
			return &models.Account{ID: id, Name: "Holiday fund", Balance: decimal.RequireFromString("42.5")}, nil
		})

	c, rec := newRequestContext(s.echo, http.MethodPatch, "/api/accounts/"+id.String(), `{"name":"Holiday fund","balance":42.5}`)
	authenticate(c, s.ownerID, false)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.PatchAccount(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AccountHandlerSuite) TestPatchAccount_UnknownField() {
	id := uuid.New()
	s.mockService.EXPECT().
		PatchAccount(gomock.Any(), gomock.Any(), id, gomock.Any()).
		Return(nil, validation.FieldErrors{"owner": services.UnknownFieldMessage})

	c, rec := newRequestContext(s.echo, http.MethodPatch, "/api/accounts/"+id.String(), fmt.Sprintf(`{"owner":%q}`, uuid.NewString()))
	authenticate(c, s.ownerID, false)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.PatchAccount(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal([]string{"owner: " + services.UnknownFieldMessage}, decodeErrorResponse(rec).Error.Details)
}

func (s *AccountHandlerSuite) TestDeleteAccount() {
	id := uuid.New()
	s.mockService.EXPECT().DeleteAccount(gomock.Any(), gomock.Any(), id).Return(nil)

	c, rec := newRequestContext(s.echo, http.MethodDelete, "/api/accounts/"+id.String(), nil)
	authenticate(c, s.ownerID, false)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.DeleteAccount(c))
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *AccountHandlerSuite) TestDeleteAccount_StoreFailure() {
	id := uuid.New()
	s.mockService.EXPECT().DeleteAccount(gomock.Any(), gomock.Any(), id).Return(fmt.Errorf("connection refused"))

	c, rec := newRequestContext(s.echo, http.MethodDelete, "/api/accounts/"+id.String(), nil)
	authenticate(c, s.ownerID, true)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.DeleteAccount(c))
	s.Equal(http.StatusInternalServerError, rec.Code)

	resp := decodeErrorResponse(rec)
	s.Equal(string(errors.SystemInternalError), resp.Error.Code)
	s.NotContains(rec.Body.String(), "connection refused")
}
