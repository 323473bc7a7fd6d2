package dto

import (
	"finances-api/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest represents the request payload for creating a new account
type CreateAccountRequest struct {
	Owner   *uuid.UUID       `json:"owner"`
	Name    *string          `json:"name" validate:"omitempty,max=65"`
	Balance *decimal.Decimal `json:"balance" validate:"omitempty,money"`
}

func (r *CreateAccountRequest) ToInput() validation.AccountInput {
	return validation.AccountInput{
		OwnerID: r.Owner,
		Name:    r.Name,
		Balance: r.Balance,
	}
}
