package dto

import (
	"finances-api/internal/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetRequest is used for both create and full replacement
type BudgetRequest struct {
	Account   *uuid.UUID       `json:"account"`
	Category  *uuid.UUID       `json:"category"`
	Amount    *decimal.Decimal `json:"amount" validate:"omitempty,money"`
	StartDate *string          `json:"start_date" validate:"omitempty,date"`
	EndDate   *string          `json:"end_date" validate:"omitempty,date"`
}

// ToInput converts the request, parsing the period dates
func (r *BudgetRequest) ToInput() (validation.BudgetInput, error) {
	input := validation.BudgetInput{
		AccountID:  r.Account,
		CategoryID: r.Category,
		Amount:     r.Amount,
	}

	if r.StartDate != nil {
		start, err := validation.ParseDate(*r.StartDate)
		if err != nil {
			return input, validation.FieldErrors{"start_date": "Date has wrong format. Use YYYY-MM-DD."}
		}
		input.StartDate = &start
	}

	if r.EndDate != nil {
		end, err := validation.ParseDate(*r.EndDate)
		if err != nil {
			return input, validation.FieldErrors{"end_date": "Date has wrong format. Use YYYY-MM-DD."}
		}
		input.EndDate = &end
	}

	return input, nil
}
