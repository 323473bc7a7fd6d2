package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"finances-api/internal/database"
	"finances-api/internal/dto"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BudgetServiceSuite struct {
	suite.Suite
	db      *database.DB
	service BudgetServiceInterface
	ctx     context.Context

	owner    Requester
	admin    Requester
	account  *models.Account
	category *models.Category
}

func TestBudgetServiceSuite(t *testing.T) {
	suite.Run(t, new(BudgetServiceSuite))
}

func (s *BudgetServiceSuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := repositories.NewAccountRepository(s.db.DB)
	budgets := repositories.NewBudgetRepository(s.db.DB)
	s.service = NewBudgetService(
		budgets,
		accounts,
		validation.NewLedgerValidator(accounts, repositories.NewCategoryRepository(s.db.DB), budgets),
		NewAuditService(repositories.NewAuditLogRepository(s.db.DB), logger),
		logger,
	)

	owner := database.CreateTestOwner(s.T(), s.db, "planner")
	s.owner = Requester{OwnerID: owner.ID}
	s.admin = Requester{OwnerID: database.CreateTestAdminOwner(s.T(), s.db, "root").ID, IsAdmin: true}
	s.account = database.CreateTestAccount(s.T(), s.db, &owner.ID, "Current", 1000)
	s.category = database.CreateTestCategory(s.T(), s.db, "Travel")
}

func (s *BudgetServiceSuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *BudgetServiceSuite) request(amount string, start, end string) *dto.BudgetRequest {
	value := decimal.RequireFromString(amount)
	return &dto.BudgetRequest{
		Account:   &s.account.ID,
		Category:  &s.category.ID,
		Amount:    &value,
		StartDate: &start,
		EndDate:   &end,
	}
}

func (s *BudgetServiceSuite) TestCreateBudget() {
	budget, err := s.service.CreateBudget(s.ctx, s.owner, s.request("300.00", "2026-01-01", "2026-01-31"))
	s.Require().NoError(err)

	s.True(budget.Amount.Equal(decimal.NewFromInt(300)))
	s.True(budget.Spent.IsZero())
	s.Equal(&s.account.ID, budget.AccountID)
	s.Equal("2026-01-31", budget.EndDate.Format(validation.DateLayout))

	stored, err := s.service.GetBudget(s.ctx, s.owner, budget.ID)
	s.NoError(err)
	s.Equal(budget.ID, stored.ID)
}

func (s *BudgetServiceSuite) TestCreateBudget_Validation() {
	tests := []struct {
		name string
		req  *dto.BudgetRequest
		err  error
	}{
		{
			name: "missing account",
			req:  &dto.BudgetRequest{Category: &s.category.ID},
			err:  validation.Required("account"),
		},
		{
			name: "negative amount",
			req:  s.request("-1", "2026-01-01", "2026-01-31"),
			err:  validation.FieldErrors{"amount": validation.NegativeBudgetMessage},
		},
		{
			name: "end before start",
			req:  s.request("10", "2026-02-01", "2026-01-31"),
			err:  validation.FieldErrors{"end_date": validation.InvalidBudgetEndMessage},
		},
		{
			name: "malformed date",
			req:  s.request("10", "01/02/2026", "2026-01-31"),
			err:  validation.FieldErrors{"start_date": "Date has wrong format. Use YYYY-MM-DD."},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.CreateBudget(s.ctx, s.owner, tt.req)
			s.Equal(tt.err, err)
		})
	}
}

func (s *BudgetServiceSuite) TestCreateBudget_OnePerCategory() {
	_, err := s.service.CreateBudget(s.ctx, s.owner, s.request("300", "2026-01-01", "2026-01-31"))
	s.Require().NoError(err)

	_, err = s.service.CreateBudget(s.ctx, s.owner, s.request("300", "2026-01-01", "2026-01-31"))
	s.ErrorIs(err, validation.ErrBudgetExists)

	_, err = s.service.CreateBudget(s.ctx, s.owner, s.request("100", "2026-02-01", "2026-02-28"))
	s.ErrorIs(err, validation.ErrCategoryHasBudget)
}

func (s *BudgetServiceSuite) TestCreateBudget_OnAnotherOwnersAccount() {
	stranger := Requester{OwnerID: database.CreateTestOwner(s.T(), s.db, "stranger").ID}

	_, err := s.service.CreateBudget(s.ctx, stranger, s.request("300", "2026-01-01", "2026-01-31"))
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.CreateBudget(s.ctx, s.admin, s.request("300", "2026-01-01", "2026-01-31"))
	s.NoError(err)
}

func (s *BudgetServiceSuite) TestCreateBudget_UnknownReferences() {
	req := s.request("300", "2026-01-01", "2026-01-31")
	missing := uuid.New()
	req.Category = &missing

	_, err := s.service.CreateBudget(s.ctx, s.owner, req)
	s.ErrorIs(err, repositories.ErrCategoryNotFound)
}

func (s *BudgetServiceSuite) TestListBudgets_Scope() {
	other := database.CreateTestOwner(s.T(), s.db, "other")
	otherAccount := database.CreateTestAccount(s.T(), s.db, &other.ID, "Other", 10)
	database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)
	database.CreateTestBudget(s.T(), s.db, database.CreateTestCategory(s.T(), s.db, "Rent"), otherAccount, 100)

	budgets, err := s.service.ListBudgets(s.ctx, s.owner)
	s.NoError(err)
	s.Len(budgets, 1)

	budgets, err = s.service.ListBudgets(s.ctx, s.admin)
	s.NoError(err)
	s.Len(budgets, 2)
}

func (s *BudgetServiceSuite) TestReplaceBudget_KeepsSpent() {
	budget := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)
	s.Require().NoError(s.db.DB.Model(budget).Update("spent", decimal.NewFromInt(40)).Error)
	start := budget.StartDate.Format(validation.DateLayout)
	end := budget.EndDate.Format(validation.DateLayout)

	replaced, err := s.service.ReplaceBudget(s.ctx, s.owner, budget.ID, s.request("250", start, end))
	s.Require().NoError(err)
	s.True(replaced.Amount.Equal(decimal.NewFromInt(250)))
	s.True(replaced.Spent.Equal(decimal.NewFromInt(40)))

	stored, err := s.service.GetBudget(s.ctx, s.owner, budget.ID)
	s.Require().NoError(err)
	s.True(stored.Spent.Equal(decimal.NewFromInt(40)))
}

func (s *BudgetServiceSuite) TestReplaceBudget_ScopeChangeRecomputesSpent() {
	budget := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 500)
	s.Require().NoError(s.db.DB.Model(budget).Update("spent", decimal.NewFromInt(200)).Error)
	books := database.CreateTestCategory(s.T(), s.db, "Books")

	tests := []struct {
		name     string
		category uuid.UUID
		start    string
		end      string
	}{
		{name: "category moved", category: books.ID, start: budget.StartDate.Format(validation.DateLayout), end: budget.EndDate.Format(validation.DateLayout)},
		{name: "period moved", category: books.ID, start: "2026-03-01", end: "2026-03-31"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.request("250", tt.start, tt.end)
			req.Category = &tt.category

			replaced, err := s.service.ReplaceBudget(s.ctx, s.owner, budget.ID, req)
			s.Require().NoError(err)
			s.Equal(books.ID, replaced.CategoryID)
			s.True(replaced.Spent.IsZero(), "got %s", replaced.Spent)

			stored, err := s.service.GetBudget(s.ctx, s.owner, budget.ID)
			s.Require().NoError(err)
			s.True(stored.Spent.IsZero(), "got %s", stored.Spent)
			s.Equal(tt.start, stored.StartDate.Format(validation.DateLayout))
		})
	}
}

func (s *BudgetServiceSuite) TestCreateBudget_StrangerSeesForbiddenBeforeConflicts() {
	database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)
	stranger := Requester{OwnerID: database.CreateTestOwner(s.T(), s.db, "stranger").ID}

	// the same request from the owner would be refused as a duplicate category budget
	_, err := s.service.CreateBudget(s.ctx, stranger, s.request("300", "2026-01-01", "2026-01-31"))
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.CreateBudget(s.ctx, s.owner, s.request("300", "2026-01-01", "2026-01-31"))
	s.ErrorIs(err, validation.ErrCategoryHasBudget)
}

func (s *BudgetServiceSuite) TestAccountlessBudgetIsAdminOnly() {
	budget := database.CreateTestBudget(s.T(), s.db, s.category, nil, 100)

	_, err := s.service.GetBudget(s.ctx, s.owner, budget.ID)
	s.ErrorIs(err, ErrForbidden)

	_, err = s.service.GetBudget(s.ctx, s.admin, budget.ID)
	s.NoError(err)
}

func (s *BudgetServiceSuite) TestDeleteBudget() {
	budget := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)

	s.Require().NoError(s.service.DeleteBudget(s.ctx, s.owner, budget.ID))

	_, err := s.service.GetBudget(s.ctx, s.owner, budget.ID)
	s.ErrorIs(err, repositories.ErrBudgetNotFound)
}
