package dto

import (
	"finances-api/internal/repositories"
	"finances-api/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest represents the request payload for recording a transaction
type CreateTransactionRequest struct {
	Account     *uuid.UUID       `json:"account"`
	Category    *uuid.UUID       `json:"category"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,money"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
}

func (r *CreateTransactionRequest) ToInput() validation.TransactionInput {
	return validation.TransactionInput{
		AccountID:   r.Account,
		CategoryID:  r.Category,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

// UpdateTransactionRequest carries the editable fields of a transaction.
// The account of a transaction never changes; fields left out keep their value.
type UpdateTransactionRequest struct {
	Category    *uuid.UUID       `json:"category"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,money"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
}

func (r *UpdateTransactionRequest) ToInput() validation.TransactionInput {
	return validation.TransactionInput{
		CategoryID:  r.Category,
		Amount:      r.Amount,
		Description: r.Description,
	}
}

func (r *UpdateTransactionRequest) ToChanges() repositories.TransactionChanges {
	return repositories.TransactionChanges{
		Amount:      r.Amount,
		Description: r.Description,
		CategoryID:  r.Category,
	}
}
