package repositories

import (
	"context"
	"errors"
	"fmt"

	"finances-api/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrBudgetNotFound = errors.New("budget not found")
)

// firstBudgetOrder is the stable insertion order used to pick the authoritative budget of a category
const firstBudgetOrder = "created_at ASC, id ASC"

type budgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) BudgetRepositoryInterface {
	return &budgetRepository{
		db: db,
	}
}

func (r *budgetRepository) Create(ctx context.Context, budget *models.Budget) error {
	if err := r.db.WithContext(ctx).Create(budget).Error; err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("failed to create budget: %w", ErrCategoryNotFound)
		}
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

func (r *budgetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	var budget models.Budget
	if err := r.db.WithContext(ctx).Preload("Category").First(&budget, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return &budget, nil
}

// List returns budgets in creation order. With ownerID set only budgets of the owner's accounts are returned.
func (r *budgetRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]models.Budget, error) {
	var budgets []models.Budget

	query := r.db.WithContext(ctx).Preload("Category").Order(firstBudgetOrder)
	if ownerID != nil {
		query = query.Where("account_id IN (?)",
			r.db.Model(&models.Account{}).Select("id").Where("owner_id = ?", *ownerID))
	}

	if err := query.Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

func (r *budgetRepository) ListAll(ctx context.Context) ([]models.Budget, error) {
	return r.List(ctx, nil)
}

// Update persists the budget terms. Spent is kept while category and period stay the same;
// otherwise it is recomputed from the transactions the new terms cover.
func (r *budgetRepository) Update(ctx context.Context, budget *models.Budget) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.Budget
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&stored, "id = ?", budget.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBudgetNotFound
			}
			return fmt.Errorf("failed to lock budget: %w", err)
		}

		columns := []interface{}{"account_id", "amount", "start_date", "end_date", "updated_at"}
		budget.Spent = stored.Spent
		if !stored.SameScope(budget) {
			total, err := sumTransactionsInPeriod(tx, budget)
			if err != nil {
				return err
			}
			budget.Spent = total
			columns = append(columns, "spent")
		}

		result := tx.Model(budget).Select("category_id", columns...).Updates(budget)
		if result.Error != nil {
			if isForeignKeyError(result.Error) {
				return fmt.Errorf("failed to update budget: %w", ErrCategoryNotFound)
			}
			return fmt.Errorf("failed to update budget: %w", result.Error)
		}
		return nil
	})
}

func (r *budgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Budget{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete budget: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

// FirstForCategory returns the authoritative budget of the category, or nil when it has none
func (r *budgetRepository) FirstForCategory(ctx context.Context, categoryID uuid.UUID) (*models.Budget, error) {
	return firstBudgetForCategory(r.db.WithContext(ctx), categoryID, false)
}

// ExistsWithTerms reports whether a budget with the same account, category, amount and period exists
func (r *budgetRepository) ExistsWithTerms(ctx context.Context, budget *models.Budget, excludeID *uuid.UUID) (bool, error) {
	var candidates []models.Budget

	query := r.db.WithContext(ctx).Where("category_id = ?", budget.CategoryID)
	if budget.AccountID != nil {
		query = query.Where("account_id = ?", *budget.AccountID)
	} else {
		query = query.Where("account_id IS NULL")
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	if err := query.Find(&candidates).Error; err != nil {
		return false, fmt.Errorf("failed to check budget terms: %w", err)
	}

	// amount and dates are compared in Go: decimal and timestamp storage differ between drivers
	for i := range candidates {
		if candidates[i].SameTerms(budget) {
			return true, nil
		}
	}
	return false, nil
}

func (r *budgetRepository) CountForCategory(ctx context.Context, categoryID uuid.UUID, excludeID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Budget{}).Where("category_id = ?", categoryID)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count budgets for category: %w", err)
	}
	return count, nil
}

// SumSpent adds up the category's transactions dated inside the budget period
func (r *budgetRepository) SumSpent(ctx context.Context, budget *models.Budget) (decimal.Decimal, error) {
	return sumTransactionsInPeriod(r.db.WithContext(ctx), budget)
}

// RecomputeSpent replaces the stored spent with the period sum plus pending and returns the saved budget
func (r *budgetRepository) RecomputeSpent(ctx context.Context, budgetID uuid.UUID, pending decimal.Decimal) (*models.Budget, error) {
	var budget models.Budget

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&budget, "id = ?", budgetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBudgetNotFound
			}
			return fmt.Errorf("failed to lock budget: %w", err)
		}

		total, err := sumTransactionsInPeriod(tx, &budget)
		if err != nil {
			return err
		}

		budget.Spent = total.Add(pending)
		if err := tx.Model(&budget).Updates(map[string]interface{}{"spent": budget.Spent}).Error; err != nil {
			return fmt.Errorf("failed to save recomputed spent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &budget, nil
}

func firstBudgetForCategory(db *gorm.DB, categoryID uuid.UUID, lock bool) (*models.Budget, error) {
	var budgets []models.Budget

	query := db.Where("category_id = ?", categoryID).Order(firstBudgetOrder).Limit(1)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	if err := query.Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("failed to get budget for category: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}
	return &budgets[0], nil
}

func sumTransactionsInPeriod(db *gorm.DB, budget *models.Budget) (decimal.Decimal, error) {
	from, until := budget.Period()

	var total decimal.Decimal
	row := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("category_id = ? AND date >= ? AND date < ?", budget.CategoryID, from, until).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions for budget: %w", err)
	}
	return total, nil
}
