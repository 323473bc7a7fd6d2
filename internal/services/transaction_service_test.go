package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"finances-api/internal/database"
	"finances-api/internal/dto"
	"finances-api/internal/events"
	"finances-api/internal/events/event_mocks"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/validation"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// TransactionServiceSuite runs the ledger end to end on sqlite
type TransactionServiceSuite struct {
	suite.Suite
	db        *database.DB
	ctrl      *gomock.Controller
	publisher *event_mocks.MockPublisher
	metrics   *PrometheusMetrics
	ctx       context.Context

	owner    *models.Owner
	account  *models.Account
	category *models.Category
	self     Requester
}

func TestTransactionServiceSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceSuite))
}

func (s *TransactionServiceSuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.ctrl = gomock.NewController(s.T())
	s.publisher = event_mocks.NewMockPublisher(s.ctrl)
	s.metrics = NewPrometheusMetrics(prometheus.NewRegistry()).(*PrometheusMetrics)
	s.ctx = context.Background()

	s.owner = database.CreateTestOwner(s.T(), s.db, "spender")
	s.account = database.CreateTestAccount(s.T(), s.db, &s.owner.ID, "Current", 1000)
	s.category = database.CreateTestCategory(s.T(), s.db, "Groceries")
	s.self = Requester{OwnerID: s.owner.ID, IPAddress: "127.0.0.1", UserAgent: "test"}
}

func (s *TransactionServiceSuite) TearDownTest() {
	s.ctrl.Finish()
	database.CleanupTestDB(s.T(), s.db)
}

func (s *TransactionServiceSuite) service(refundOnDelete bool) TransactionServiceInterface {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := repositories.NewAccountRepository(s.db.DB)
	categories := repositories.NewCategoryRepository(s.db.DB)
	budgets := repositories.NewBudgetRepository(s.db.DB)

	return NewTransactionService(
		repositories.NewTransactionRepository(s.db.DB),
		accounts,
		repositories.NewLedgerRepository(s.db.DB),
		validation.NewLedgerValidator(accounts, categories, budgets),
		NewAuditService(repositories.NewAuditLogRepository(s.db.DB), logger),
		NewAuditLogger(logger),
		s.metrics,
		s.publisher,
		refundOnDelete,
		logger,
	)
}

func (s *TransactionServiceSuite) createRequest(amount int64) *dto.CreateTransactionRequest {
	value := decimal.NewFromInt(amount)
	description := gofakeit.Sentence(3)
	return &dto.CreateTransactionRequest{
		Account:     &s.account.ID,
		Category:    &s.category.ID,
		Amount:      &value,
		Description: &description,
	}
}

func (s *TransactionServiceSuite) balance() decimal.Decimal {
	var account models.Account
	s.Require().NoError(s.db.First(&account, "id = ?", s.account.ID).Error)
	return account.Balance
}

func (s *TransactionServiceSuite) spent(id uuid.UUID) decimal.Decimal {
	var budget models.Budget
	s.Require().NoError(s.db.First(&budget, "id = ?", id).Error)
	return budget.Spent
}

func (s *TransactionServiceSuite) auditActions() []string {
	var logs []models.AuditLog
	s.Require().NoError(s.db.Where("resource = ?", models.AuditResourceTransaction).Order("created_at ASC").Find(&logs).Error)
	actions := make([]string, len(logs))
	for i, log := range logs {
		actions[i] = log.Action
	}
	return actions
}

func (s *TransactionServiceSuite) expectEvent(eventType string) {
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, event *events.LedgerEvent) error {
		s.Equal(eventType, event.Type)
		return nil
	})
}

func (s *TransactionServiceSuite) runLifecycle(refundOnDelete bool) decimal.Decimal {
	service := s.service(refundOnDelete)
	budget := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 500)

	s.expectEvent(events.TransactionCreated)
	created, err := service.CreateTransaction(s.ctx, s.self, s.createRequest(200))
	s.Require().NoError(err)
	s.True(s.balance().Equal(decimal.NewFromInt(800)))
	s.True(s.spent(budget.ID).Equal(decimal.NewFromInt(200)))

	s.expectEvent(events.TransactionUpdated)
	amount := decimal.NewFromInt(300)
	updated, err := service.UpdateTransaction(s.ctx, s.self, created.ID, &dto.UpdateTransactionRequest{Amount: &amount})
	s.Require().NoError(err)
	s.True(updated.Amount.Equal(amount))
	s.Equal(created.Description, updated.Description)
	s.True(s.balance().Equal(decimal.NewFromInt(700)))
	s.True(s.spent(budget.ID).Equal(decimal.NewFromInt(300)))

	s.expectEvent(events.TransactionDeleted)
	s.Require().NoError(service.DeleteTransaction(s.ctx, s.self, created.ID))
	s.True(s.spent(budget.ID).Equal(decimal.Zero))

	s.Equal([]string{models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete}, s.auditActions())
	s.Equal(3.0, testutil.ToFloat64(s.metrics.eventsPublished.WithLabelValues("published")))

	return s.balance()
}

func (s *TransactionServiceSuite) TestLifecycle_RefundOnDelete() {
	s.True(s.runLifecycle(true).Equal(decimal.NewFromInt(1000)))
}

func (s *TransactionServiceSuite) TestLifecycle_NoRefundOnDelete() {
	s.True(s.runLifecycle(false).Equal(decimal.NewFromInt(700)))
}

func (s *TransactionServiceSuite) TestCreate_ExceedsBudget() {
	database.CreateTestBudget(s.T(), s.db, s.category, s.account, 150)

	transaction, err := s.service(true).CreateTransaction(s.ctx, s.self, s.createRequest(200))

	s.ErrorIs(err, validation.ErrExceedsBudget)
	s.Nil(transaction)
	s.True(s.balance().Equal(decimal.NewFromInt(1000)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ledgerOperations.WithLabelValues(OperationCreate, "rejected_exceeds_budget")))
}

func (s *TransactionServiceSuite) TestCreate_InsufficientBalance() {
	transaction, err := s.service(true).CreateTransaction(s.ctx, s.self, s.createRequest(1001))

	s.ErrorIs(err, validation.ErrInsufficientBalance)
	s.Nil(transaction)
	s.True(s.balance().Equal(decimal.NewFromInt(1000)))
	s.Empty(s.auditActions())
}

func (s *TransactionServiceSuite) TestCreate_WithoutBudget() {
	s.expectEvent(events.TransactionCreated)

	transaction, err := s.service(true).CreateTransaction(s.ctx, s.self, s.createRequest(250))

	s.Require().NoError(err)
	s.Nil(transaction.BudgetID)
	s.True(s.balance().Equal(decimal.NewFromInt(750)))
}

func (s *TransactionServiceSuite) TestCreate_MissingFieldsInOrder() {
	service := s.service(true)
	req := s.createRequest(10)
	req.Description = nil
	req.Category = nil

	_, err := service.CreateTransaction(s.ctx, s.self, req)

	fieldErrors, ok := validation.AsFieldErrors(err)
	s.Require().True(ok)
	s.Equal(validation.Required("description"), fieldErrors)
}

func (s *TransactionServiceSuite) TestCreate_OtherOwnersAccountIsForbidden() {
	stranger := database.CreateTestOwner(s.T(), s.db, "stranger")

	_, err := s.service(true).CreateTransaction(s.ctx, Requester{OwnerID: stranger.ID}, s.createRequest(10))

	s.ErrorIs(err, ErrForbidden)
	s.True(s.balance().Equal(decimal.NewFromInt(1000)))
}

func (s *TransactionServiceSuite) TestCreate_StrangerCannotProbeBalance() {
	stranger := Requester{OwnerID: database.CreateTestOwner(s.T(), s.db, "prober").ID}
	database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)
	service := s.service(true)

	for _, amount := range []int64{99, 101, 999, 1000, 1001} {
		_, err := service.CreateTransaction(s.ctx, stranger, s.createRequest(amount))
		s.ErrorIs(err, ErrForbidden, "amount %d", amount)
	}

	s.True(s.balance().Equal(decimal.NewFromInt(1000)))
	s.Equal(5.0, testutil.ToFloat64(s.metrics.ledgerOperations.WithLabelValues(OperationCreate, "rejected_forbidden")))
}

func (s *TransactionServiceSuite) TestCreate_PublishFailureKeepsTransaction() {
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker unreachable"))

	transaction, err := s.service(true).CreateTransaction(s.ctx, s.self, s.createRequest(100))

	s.Require().NoError(err)
	s.NotNil(transaction)
	s.True(s.balance().Equal(decimal.NewFromInt(900)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.eventsPublished.WithLabelValues("failed")))
}

func (s *TransactionServiceSuite) TestUpdate_IncreaseBeyondBalanceIsRejected() {
	service := s.service(true)
	budget := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 1000)

	s.expectEvent(events.TransactionCreated)
	created, err := service.CreateTransaction(s.ctx, s.self, s.createRequest(900))
	s.Require().NoError(err)

	amount := decimal.NewFromInt(1001)
	_, err = service.UpdateTransaction(s.ctx, s.self, created.ID, &dto.UpdateTransactionRequest{Amount: &amount})

	s.ErrorIs(err, models.ErrInsufficientBalance)
	s.True(s.balance().Equal(decimal.NewFromInt(100)))
	s.True(s.spent(budget.ID).Equal(decimal.NewFromInt(900)))
}

func (s *TransactionServiceSuite) TestUpdate_MovesAmountBetweenCategoryBudgets() {
	service := s.service(true)
	food := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 500)
	travel := database.CreateTestCategory(s.T(), s.db, "Travel")
	travelBudget := database.CreateTestBudget(s.T(), s.db, travel, s.account, 500)

	s.expectEvent(events.TransactionCreated)
	created, err := service.CreateTransaction(s.ctx, s.self, s.createRequest(120))
	s.Require().NoError(err)

	s.expectEvent(events.TransactionUpdated)
	_, err = service.UpdateTransaction(s.ctx, s.self, created.ID, &dto.UpdateTransactionRequest{Category: &travel.ID})
	s.Require().NoError(err)

	s.True(s.spent(food.ID).Equal(decimal.Zero))
	s.True(s.spent(travelBudget.ID).Equal(decimal.NewFromInt(120)))
	s.True(s.balance().Equal(decimal.NewFromInt(880)))
}

func (s *TransactionServiceSuite) TestUpdate_NonPositiveAmount() {
	service := s.service(true)
	s.expectEvent(events.TransactionCreated)
	created, err := service.CreateTransaction(s.ctx, s.self, s.createRequest(50))
	s.Require().NoError(err)

	amount := decimal.NewFromInt(-5)
	_, err = service.UpdateTransaction(s.ctx, s.self, created.ID, &dto.UpdateTransactionRequest{Amount: &amount})

	s.Equal(validation.FieldErrors{"amount": validation.NonPositiveMessage}, err)
}

func (s *TransactionServiceSuite) TestGetAndList_AreScopedToOwner() {
	service := s.service(true)
	s.expectEvent(events.TransactionCreated)
	created, err := service.CreateTransaction(s.ctx, s.self, s.createRequest(50))
	s.Require().NoError(err)

	stranger := Requester{OwnerID: database.CreateTestOwner(s.T(), s.db, "stranger").ID}

	_, err = service.GetTransaction(s.ctx, stranger, created.ID)
	s.ErrorIs(err, ErrForbidden)

	list, err := service.ListTransactions(s.ctx, stranger)
	s.NoError(err)
	s.Empty(list)

	list, err = service.ListTransactions(s.ctx, s.self)
	s.NoError(err)
	s.Len(list, 1)

	list, err = service.ListTransactions(s.ctx, Requester{IsAdmin: true})
	s.NoError(err)
	s.Len(list, 1)
}

func (s *TransactionServiceSuite) TestDelete_NotFound() {
	err := s.service(true).DeleteTransaction(s.ctx, s.self, uuid.New())
	s.ErrorIs(err, repositories.ErrTransactionNotFound)
}
