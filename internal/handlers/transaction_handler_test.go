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

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TransactionHandlerTestSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockService *service_mocks.MockTransactionServiceInterface
	handler     *TransactionHandler
	echo        *echo.Echo
	ownerID     uuid.UUID
	accountID   uuid.UUID
	categoryID  uuid.UUID
}

func TestTransactionHandlerSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}

func (s *TransactionHandlerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = service_mocks.NewMockTransactionServiceInterface(s.ctrl)
	s.handler = NewTransactionHandler(s.mockService)
	s.echo = newTestEcho()
	s.ownerID = uuid.New()
	s.accountID = uuid.New()
	s.categoryID = uuid.New()
}

func (s *TransactionHandlerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *TransactionHandlerTestSuite) createBody(amount string) map[string]interface{} {
	return map[string]interface{}{
		"account":     s.accountID,
		"category":    s.categoryID,
		"amount":      amount,
		"description": gofakeit.Sentence(4),
	}
}

func (s *TransactionHandlerTestSuite) TestCreateTransaction() {
	body := s.createBody("19.99")

	s.mockService.EXPECT().
		CreateTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, requester services.Requester, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
			s.Equal(s.ownerID, requester.OwnerID)
			s.Equal(s.accountID, *req.Account)
			s.Equal(s.categoryID, *req.Category)
			s.Equal(body["description"], *req.Description)
			return &models.Transaction{
				ID:          uuid.New(),
				AccountID:   *req.Account,
				CategoryID:  req.Category,
				Amount:      *req.Amount,
				Description: *req.Description,
			}, nil
		})

	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/transactions", body)
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.CreateTransaction(c))
	s.Equal(http.StatusCreated, rec.Code)

	var transaction models.Transaction
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &transaction))
	s.Equal("19.99", transaction.Amount.StringFixed(2))
	s.Equal(s.accountID, transaction.AccountID)
}

func (s *TransactionHandlerTestSuite) TestCreateTransaction_TooManyDecimalPlaces() {
	c, rec := newRequestContext(s.echo, http.MethodPost, "/api/transactions", s.createBody("1.001"))
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.CreateTransaction(c))
	s.Equal(http.StatusBadRequest, rec.Code)

	resp := decodeErrorResponse(rec)
	s.Equal(string(errors.ValidationGeneral), resp.Error.Code)
	s.Require().Len(resp.Error.Details, 1)
	s.Contains(resp.Error.Details[0], "amount")
}

func (s *TransactionHandlerTestSuite) TestCreateTransaction_LedgerRules() {
	testCases := []struct {
		name       string
		err        error
		expectCode int
		errorCode  errors.ErrorCode
	}{
		{"insufficient balance", fmt.Errorf("account %s: %w", s.accountID, models.ErrInsufficientBalance), http.StatusUnprocessableEntity, errors.TransactionInsufficientBalance},
		{"exceeds budget", models.ErrExceedsBudget, http.StatusUnprocessableEntity, errors.BudgetExceeded},
		{"non-positive amount", models.ErrNonPositiveAmount, http.StatusBadRequest, errors.TransactionInvalidAmount},
		{"unknown account", repositories.ErrAccountNotFound, http.StatusNotFound, errors.AccountNotFound},
		{"unknown category", repositories.ErrCategoryNotFound, http.StatusNotFound, errors.CategoryNotFound},
		{"account of another owner", services.ErrForbidden, http.StatusForbidden, errors.AuthInsufficientPermission},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.mockService.EXPECT().CreateTransaction(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)

			c, rec := newRequestContext(s.echo, http.MethodPost, "/api/transactions", s.createBody("500.00"))
			authenticate(c, s.ownerID, false)

			s.NoError(s.handler.CreateTransaction(c))
			s.Equal(tc.expectCode, rec.Code)
			s.Equal(string(tc.errorCode), decodeErrorResponse(rec).Error.Code)
		})
	}
}

func (s *TransactionHandlerTestSuite) TestGetTransaction_InvalidID() {
	c, rec := newRequestContext(s.echo, http.MethodGet, "/api/transactions/abc", nil)
	authenticate(c, s.ownerID, false)
	withPathParams(c, map[string]string{"id": "abc"})

	s.NoError(s.handler.GetTransaction(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal([]string{"Invalid transaction ID"}, decodeErrorResponse(rec).Error.Details)
}

func (s *TransactionHandlerTestSuite) TestGetTransaction_NotFound() {
	id := uuid.New()
	s.mockService.EXPECT().GetTransaction(gomock.Any(), gomock.Any(), id).Return(nil, repositories.ErrTransactionNotFound)

	c, rec := newRequestContext(s.echo, http.MethodGet, "/api/transactions/"+id.String(), nil)
	authenticate(c, s.ownerID, false)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.GetTransaction(c))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(string(errors.TransactionNotFound), decodeErrorResponse(rec).Error.Code)
}

func (s *TransactionHandlerTestSuite) TestListTransactions_Empty() {
	s.mockService.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).Return(nil, nil)

	c, rec := newRequestContext(s.echo, http.MethodGet, "/api/transactions", nil)
	authenticate(c, s.ownerID, false)

	s.NoError(s.handler.ListTransactions(c))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"message":"There are no registered transactions."}`, rec.Body.String())
}

func (s *TransactionHandlerTestSuite) TestUpdateTransaction() {
	id := uuid.New()
	newCategory := uuid.New()

	s.mockService.EXPECT().
		UpdateTransaction(gomock.Any(), gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ services.Requester, _ uuid.UUID, req *dto.UpdateTransactionRequest) (*models.Transaction, error) {
			s.Equal(newCategory, *req.Category)
			s.True(req.Amount.Equal(decimal.NewFromInt(30)))
			s.Nil(req.Description)
			return &models.Transaction{ID: id, AccountID: s.accountID, CategoryID: req.Category, Amount: *req.Amount}, nil
		})

	body := map[string]interface{}{"category": newCategory, "amount": "30"}
	c, rec := newRequestContext(s.echo, http.MethodPut, "/api/transactions/"+id.String(), body)
	authenticate(c, s.ownerID, false)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.UpdateTransaction(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *TransactionHandlerTestSuite) TestUpdateTransaction_ExceedsBudget() {
	id := uuid.New()
	s.mockService.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any(), id, gomock.Any()).Return(nil, models.ErrExceedsBudget)

	c, rec := newRequestContext(s.echo, http.MethodPut, "/api/transactions/"+id.String(), map[string]string{"amount": "9999"})
	authenticate(c, s.ownerID, false)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.UpdateTransaction(c))
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *TransactionHandlerTestSuite) TestDeleteTransaction() {
	id := uuid.New()
	s.mockService.EXPECT().DeleteTransaction(gomock.Any(), gomock.Any(), id).Return(nil)

	c, rec := newRequestContext(s.echo, http.MethodDelete, "/api/transactions/"+id.String(), nil)
	authenticate(c, s.ownerID, false)
	withPathParams(c, map[string]string{"id": id.String()})

	s.NoError(s.handler.DeleteTransaction(c))
	s.Equal(http.StatusNoContent, rec.Code)
}
