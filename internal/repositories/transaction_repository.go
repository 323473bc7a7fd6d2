package repositories

import (
	"context"
	"errors"
	"fmt"

	"finances-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{
		db: db,
	}
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

// List returns transactions oldest first. With ownerID set only transactions of the owner's accounts are returned.
func (r *transactionRepository) List(ctx context.Context, ownerID *uuid.UUID) ([]models.Transaction, error) {
	var transactions []models.Transaction

	query := r.db.WithContext(ctx).Order("date ASC, id ASC")
	if ownerID != nil {
		query = query.Where("account_id IN (?)",
			r.db.Model(&models.Account{}).Select("id").Where("owner_id = ?", *ownerID))
	}

	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}
