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

// TransactionChanges carries the editable fields of a transaction. Nil fields keep their value.
type TransactionChanges struct {
	Amount      *decimal.Decimal
	Description *string
	CategoryID  *uuid.UUID
}

// BudgetEffect records how the spent total of one budget moved
type BudgetEffect struct {
	BudgetID    uuid.UUID
	SpentBefore decimal.Decimal
	SpentAfter  decimal.Decimal
}

// LedgerEffect describes a committed ledger operation
type LedgerEffect struct {
	Transaction   models.Transaction
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Budgets       []BudgetEffect
}

// Delta is what left the account: positive for a debit, negative for a credit
func (e *LedgerEffect) Delta() decimal.Decimal {
	return e.BalanceBefore.Sub(e.BalanceAfter)
}

// CurrentBudget is the budget the transaction is counted against after the operation, if any
func (e *LedgerEffect) CurrentBudget() *BudgetEffect {
	if len(e.Budgets) == 0 {
		return nil
	}
	return &e.Budgets[len(e.Budgets)-1]
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepositoryInterface {
	return &ledgerRepository{
		db: db,
	}
}

// CreateTransaction inserts the transaction, debits its account and adds the amount to the
// category's budget. Nothing is written when the balance cannot cover the amount or the
// amount is over the budget cap.
func (r *ledgerRepository) CreateTransaction(ctx context.Context, transaction *models.Transaction) (*LedgerEffect, error) {
	if transaction == nil {
		return nil, errors.New("transaction cannot be nil")
	}
	if !transaction.Amount.IsPositive() {
		return nil, models.ErrNonPositiveAmount
	}

	effect := &LedgerEffect{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := lockAccount(tx, transaction.AccountID)
		if err != nil {
			return err
		}
		effect.BalanceBefore = account.Balance

		var budget *models.Budget
		if transaction.HasCategory() {
			if err := ensureCategory(tx, *transaction.CategoryID); err != nil {
				return err
			}
			if budget, err = firstBudgetForCategory(tx, *transaction.CategoryID, true); err != nil {
				return err
			}
		}

		if err := account.Debit(transaction.Amount); err != nil {
			return err
		}
		if budget != nil && budget.Exceeded(transaction.Amount) {
			return models.ErrExceedsBudget
		}

		transaction.BudgetID = nil
		if budget != nil {
			transaction.BudgetID = &budget.ID
		}

		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		if err := saveBalance(tx, account); err != nil {
			return err
		}
		effect.BalanceAfter = account.Balance

		if budget != nil {
			moved, err := moveSpent(tx, budget, transaction.Amount)
			if err != nil {
				return err
			}
			effect.Budgets = append(effect.Budgets, moved)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	effect.Transaction = *transaction
	return effect, nil
}

// UpdateTransaction applies the changes and moves the balance by new - old.
// A growth the balance cannot cover is rejected with no change. When the category changes the
// old budget gives back the old amount and the new budget takes the new amount.
func (r *ledgerRepository) UpdateTransaction(ctx context.Context, id uuid.UUID, changes TransactionChanges) (*LedgerEffect, error) {
	effect := &LedgerEffect{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockTransaction(tx, id)
		if err != nil {
			return err
		}

		account, err := lockAccount(tx, current.AccountID)
		if err != nil {
			return err
		}
		effect.BalanceBefore = account.Balance

		updated := *current
		if changes.Amount != nil {
			updated.Amount = *changes.Amount
		}
		if changes.Description != nil {
			updated.Description = *changes.Description
		}
		if changes.CategoryID != nil {
			updated.CategoryID = changes.CategoryID
		}
		if err := updated.Validate(); err != nil {
			return err
		}

		categoryChanged := !sameCategory(current.CategoryID, updated.CategoryID)
		if categoryChanged && updated.HasCategory() {
			if err := ensureCategory(tx, *updated.CategoryID); err != nil {
				return err
			}
		}

		delta := updated.Amount.Sub(current.Amount)
		if err := account.ApplyDelta(delta); err != nil {
			return err
		}

		var budget *models.Budget
		if categoryChanged {
			previous, err := budgetForCategory(tx, current.CategoryID)
			if err != nil {
				return err
			}
			if previous != nil {
				moved, err := moveSpent(tx, previous, current.Amount.Neg())
				if err != nil {
					return err
				}
				effect.Budgets = append(effect.Budgets, moved)
			}

			if budget, err = budgetForCategory(tx, updated.CategoryID); err != nil {
				return err
			}
			if budget != nil {
				moved, err := moveSpent(tx, budget, updated.Amount)
				if err != nil {
					return err
				}
				effect.Budgets = append(effect.Budgets, moved)
			}
		} else {
			if budget, err = budgetForCategory(tx, current.CategoryID); err != nil {
				return err
			}
			if budget != nil {
				moved, err := moveSpent(tx, budget, delta)
				if err != nil {
					return err
				}
				effect.Budgets = append(effect.Budgets, moved)
			}
		}

		var categoryID, budgetID interface{}
		if updated.HasCategory() {
			categoryID = *updated.CategoryID
		}
		if budget != nil {
			budgetID = budget.ID
			updated.BudgetID = &budget.ID
		} else {
			updated.BudgetID = nil
		}

		if err := tx.Model(current).Updates(map[string]interface{}{
			"amount":      updated.Amount,
			"description": updated.Description,
			"category_id": categoryID,
			"budget_id":   budgetID,
		}).Error; err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		if err := saveBalance(tx, account); err != nil {
			return err
		}
		effect.BalanceAfter = account.Balance

		if err := tx.First(&effect.Transaction, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to reload transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return effect, nil
}

// DeleteTransaction removes the transaction and takes its amount off the category's budget.
// With refund set the amount is credited back to the account.
func (r *ledgerRepository) DeleteTransaction(ctx context.Context, id uuid.UUID, refund bool) (*LedgerEffect, error) {
	effect := &LedgerEffect{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockTransaction(tx, id)
		if err != nil {
			return err
		}

		account, err := lockAccount(tx, current.AccountID)
		if err != nil {
			return err
		}
		effect.BalanceBefore = account.Balance

		budget, err := budgetForCategory(tx, current.CategoryID)
		if err != nil {
			return err
		}
		if budget != nil {
			moved, err := moveSpent(tx, budget, current.Amount.Neg())
			if err != nil {
				return err
			}
			effect.Budgets = append(effect.Budgets, moved)
		}

		if err := tx.Delete(&models.Transaction{}, "id = ?", current.ID).Error; err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}

		if refund {
			if err := account.Credit(current.Amount); err != nil {
				return err
			}
			if err := saveBalance(tx, account); err != nil {
				return err
			}
		}
		effect.BalanceAfter = account.Balance
		effect.Transaction = *current

		return nil
	})
	if err != nil {
		return nil, err
	}

	return effect, nil
}

func lockAccount(tx *gorm.DB, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &account, nil
}

func lockTransaction(tx *gorm.DB, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return &transaction, nil
}

func ensureCategory(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func budgetForCategory(tx *gorm.DB, categoryID *uuid.UUID) (*models.Budget, error) {
	if categoryID == nil || *categoryID == uuid.Nil {
		return nil, nil
	}
	return firstBudgetForCategory(tx, *categoryID, true)
}

func saveBalance(tx *gorm.DB, account *models.Account) error {
	if err := tx.Model(account).Updates(map[string]interface{}{"balance": account.Balance}).Error; err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	return nil
}

func moveSpent(tx *gorm.DB, budget *models.Budget, delta decimal.Decimal) (BudgetEffect, error) {
	moved := BudgetEffect{BudgetID: budget.ID, SpentBefore: budget.Spent}

	budget.AddSpent(delta)
	if err := tx.Model(budget).Updates(map[string]interface{}{"spent": budget.Spent}).Error; err != nil {
		return moved, fmt.Errorf("failed to update budget spent: %w", err)
	}

	moved.SpentAfter = budget.Spent
	return moved, nil
}

func sameCategory(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
