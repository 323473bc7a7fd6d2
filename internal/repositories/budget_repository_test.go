package repositories

import (
	"context"
	"testing"
	"time"

	"finances-api/internal/database"
	"finances-api/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BudgetRepositorySuite struct {
	suite.Suite
	db       *database.DB
	repo     BudgetRepositoryInterface
	ctx      context.Context
	owner    *models.Owner
	account  *models.Account
	category *models.Category
}

func TestBudgetRepositorySuite(t *testing.T) {
	suite.Run(t, new(BudgetRepositorySuite))
}

func (s *BudgetRepositorySuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())
	s.repo = NewBudgetRepository(s.db.DB)
	s.ctx = context.Background()

	s.owner = database.CreateTestOwner(s.T(), s.db, "budget_owner")
	s.account = database.CreateTestAccount(s.T(), s.db, &s.owner.ID, "Current", 5000)
	s.category = database.CreateTestCategory(s.T(), s.db, "Food")
}

func (s *BudgetRepositorySuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *BudgetRepositorySuite) newBudget(amount int64) *models.Budget {
	return &models.Budget{
		CategoryID: s.category.ID,
		AccountID:  &s.account.ID,
		Amount:     decimal.NewFromInt(amount),
		StartDate:  time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
}

func (s *BudgetRepositorySuite) insertTransaction(amount int64, date time.Time, category *models.Category) {
	transaction := &models.Transaction{
		AccountID:   s.account.ID,
		Amount:      decimal.NewFromInt(amount),
		Description: "seeded",
		Date:        date,
	}
	if category != nil {
		transaction.CategoryID = &category.ID
	}
	s.Require().NoError(s.db.Create(transaction).Error)
}

func (s *BudgetRepositorySuite) TestCreate_And_GetByID() {
	budget := s.newBudget(1000)
	s.Require().NoError(s.repo.Create(s.ctx, budget))

	found, err := s.repo.GetByID(s.ctx, budget.ID)

	s.Require().NoError(err)
	s.True(found.Amount.Equal(decimal.NewFromInt(1000)))
	s.True(found.Spent.IsZero())
	s.Require().NotNil(found.Category)
	s.Equal("Food", found.Category.Name)
}

func (s *BudgetRepositorySuite) TestCreate_UnknownCategory() {
	budget := s.newBudget(100)
	budget.CategoryID = uuid.New()

	err := s.repo.Create(s.ctx, budget)

	s.ErrorIs(err, ErrCategoryNotFound)
}

func (s *BudgetRepositorySuite) TestCreate_InvalidPeriod() {
	budget := s.newBudget(100)
	budget.EndDate = budget.StartDate.AddDate(0, 0, -1)

	err := s.repo.Create(s.ctx, budget)

	s.ErrorIs(err, models.ErrInvalidBudgetPeriod)
}

func (s *BudgetRepositorySuite) TestGetByID_NotFound() {
	_, err := s.repo.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, ErrBudgetNotFound)
}

func (s *BudgetRepositorySuite) TestList_ScopedToOwner() {
	other := database.CreateTestOwner(s.T(), s.db, "other_budget_owner")
	otherAccount := database.CreateTestAccount(s.T(), s.db, &other.ID, "Other", 100)
	transport := database.CreateTestCategory(s.T(), s.db, "Transport")

	mine := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)
	database.CreateTestBudget(s.T(), s.db, transport, otherAccount, 200)
	database.CreateTestBudget(s.T(), s.db, transport, nil, 300)

	budgets, err := s.repo.List(s.ctx, &s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(budgets, 1)
	s.Equal(mine.ID, budgets[0].ID)

	all, err := s.repo.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *BudgetRepositorySuite) TestUpdate_KeepsSpent() {
	budget := s.newBudget(1000)
	s.Require().NoError(s.repo.Create(s.ctx, budget))
	s.Require().NoError(s.db.Model(budget).Updates(map[string]interface{}{"spent": decimal.NewFromInt(120)}).Error)

	budget.Amount = decimal.NewFromInt(2000)
	budget.Spent = decimal.Zero
	s.Require().NoError(s.repo.Update(s.ctx, budget))

	found, err := s.repo.GetByID(s.ctx, budget.ID)
	s.Require().NoError(err)
	s.True(found.Amount.Equal(decimal.NewFromInt(2000)))
	s.True(found.Spent.Equal(decimal.NewFromInt(120)))
}

func (s *BudgetRepositorySuite) TestUpdate_CategoryChangeRecomputesSpent() {
	budget := s.newBudget(1000)
	s.Require().NoError(s.repo.Create(s.ctx, budget))
	s.Require().NoError(s.db.Model(budget).Updates(map[string]interface{}{"spent": decimal.NewFromInt(200)}).Error)
	books := database.CreateTestCategory(s.T(), s.db, "Books")

	budget.CategoryID = books.ID
	s.Require().NoError(s.repo.Update(s.ctx, budget))
	s.True(budget.Spent.IsZero(), "got %s", budget.Spent)

	found, err := s.repo.GetByID(s.ctx, budget.ID)
	s.Require().NoError(err)
	s.Equal(books.ID, found.CategoryID)
	s.True(found.Spent.IsZero(), "got %s", found.Spent)
}

func (s *BudgetRepositorySuite) TestUpdate_PeriodChangeRecomputesSpent() {
	budget := s.newBudget(1000)
	s.Require().NoError(s.repo.Create(s.ctx, budget))
	s.insertTransaction(100, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), s.category)
	s.insertTransaction(40, time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC), s.category)
	s.Require().NoError(s.db.Model(budget).Updates(map[string]interface{}{"spent": decimal.NewFromInt(100)}).Error)

	budget.EndDate = time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.repo.Update(s.ctx, budget))

	found, err := s.repo.GetByID(s.ctx, budget.ID)
	s.Require().NoError(err)
	s.True(found.Spent.Equal(decimal.NewFromInt(140)), "got %s", found.Spent)
}

func (s *BudgetRepositorySuite) TestUpdate_NotFound() {
	budget := s.newBudget(10)
	budget.ID = uuid.New()

	s.ErrorIs(s.repo.Update(s.ctx, budget), ErrBudgetNotFound)
}

func (s *BudgetRepositorySuite) TestDelete() {
	budget := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)

	s.Require().NoError(s.repo.Delete(s.ctx, budget.ID))
	s.ErrorIs(s.repo.Delete(s.ctx, budget.ID), ErrBudgetNotFound)
}

func (s *BudgetRepositorySuite) TestFirstForCategory() {
	none, err := s.repo.FirstForCategory(s.ctx, s.category.ID)
	s.Require().NoError(err)
	s.Nil(none)

	first := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)
	second := database.CreateTestBudget(s.T(), s.db, s.category, nil, 200)
	s.Require().NoError(s.db.Model(second).Update("created_at", first.CreatedAt.Add(time.Second)).Error)

	found, err := s.repo.FirstForCategory(s.ctx, s.category.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(first.ID, found.ID)
}

func (s *BudgetRepositorySuite) TestExistsWithTerms() {
	existing := s.newBudget(1000)
	s.Require().NoError(s.repo.Create(s.ctx, existing))

	tests := []struct {
		name     string
		mutate   func(b *models.Budget)
		exclude  *uuid.UUID
		expected bool
	}{
		{name: "identical terms", mutate: func(b *models.Budget) {}, expected: true},
		{name: "same day different clock", mutate: func(b *models.Budget) { b.StartDate = b.StartDate.Add(5 * time.Hour) }, expected: true},
		{name: "different amount", mutate: func(b *models.Budget) { b.Amount = decimal.NewFromInt(999) }, expected: false},
		{name: "different end", mutate: func(b *models.Budget) { b.EndDate = b.EndDate.AddDate(0, 0, 1) }, expected: false},
		{name: "no account", mutate: func(b *models.Budget) { b.AccountID = nil }, expected: false},
		{name: "excluding itself", mutate: func(b *models.Budget) {}, exclude: &existing.ID, expected: false},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			candidate := s.newBudget(1000)
			tt.mutate(candidate)

			exists, err := s.repo.ExistsWithTerms(s.ctx, candidate, tt.exclude)

			s.Require().NoError(err)
			s.Equal(tt.expected, exists)
		})
	}
}

func (s *BudgetRepositorySuite) TestCountForCategory() {
	first := database.CreateTestBudget(s.T(), s.db, s.category, s.account, 100)

	count, err := s.repo.CountForCategory(s.ctx, s.category.ID, nil)
	s.Require().NoError(err)
	s.EqualValues(1, count)

	count, err = s.repo.CountForCategory(s.ctx, s.category.ID, &first.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *BudgetRepositorySuite) TestSumSpent_OnlyCountsPeriodAndCategory() {
	budget := s.newBudget(1000)
	s.Require().NoError(s.repo.Create(s.ctx, budget))
	transport := database.CreateTestCategory(s.T(), s.db, "Transport")

	s.insertTransaction(100, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), s.category)
	s.insertTransaction(50, time.Date(2024, time.March, 31, 23, 59, 0, 0, time.UTC), s.category)
	s.insertTransaction(70, time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC), s.category)
	s.insertTransaction(80, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), s.category)
	s.insertTransaction(90, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), transport)
	s.insertTransaction(60, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), nil)

	total, err := s.repo.SumSpent(s.ctx, budget)

	s.Require().NoError(err)
	s.True(total.Equal(decimal.NewFromInt(150)), "got %s", total)
}

func (s *BudgetRepositorySuite) TestSumSpent_Empty() {
	budget := s.newBudget(1000)
	s.Require().NoError(s.repo.Create(s.ctx, budget))

	total, err := s.repo.SumSpent(s.ctx, budget)

	s.Require().NoError(err)
	s.True(total.IsZero())
}

func (s *BudgetRepositorySuite) TestRecomputeSpent() {
	budget := s.newBudget(1000)
	s.Require().NoError(s.repo.Create(s.ctx, budget))
	s.Require().NoError(s.db.Model(budget).Updates(map[string]interface{}{"spent": decimal.NewFromInt(999)}).Error)
	s.insertTransaction(100, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), s.category)

	recomputed, err := s.repo.RecomputeSpent(s.ctx, budget.ID, decimal.NewFromInt(25))

	s.Require().NoError(err)
	s.True(recomputed.Spent.Equal(decimal.NewFromInt(125)))

	stored, err := s.repo.GetByID(s.ctx, budget.ID)
	s.Require().NoError(err)
	s.True(stored.Spent.Equal(decimal.NewFromInt(125)))
}

func (s *BudgetRepositorySuite) TestRecomputeSpent_NotFound() {
	_, err := s.repo.RecomputeSpent(s.ctx, uuid.New(), decimal.Zero)
	s.ErrorIs(err, ErrBudgetNotFound)
}
