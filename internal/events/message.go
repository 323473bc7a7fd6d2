package events

import (
	"encoding/json"
	"time"

	"finances-api/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
	BudgetReconciled   = "budget.reconciled"
)

// LedgerEvent describes one committed change to the ledger
type LedgerEvent struct {
	Type          string           `json:"type"`
	TransactionID *uuid.UUID       `json:"transaction_id,omitempty"`
	AccountID     *uuid.UUID       `json:"account_id,omitempty"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
	BudgetID      *uuid.UUID       `json:"budget_id,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Delta         decimal.Decimal  `json:"delta"`
	BalanceAfter  *decimal.Decimal `json:"balance_after,omitempty"`
	SpentAfter    *decimal.Decimal `json:"spent_after,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// NewLedgerEvent builds the event for a committed ledger operation
func NewLedgerEvent(eventType string, effect *repositories.LedgerEffect) *LedgerEvent {
	tx := effect.Transaction
	balance := effect.BalanceAfter

	event := &LedgerEvent{
		Type:          eventType,
		TransactionID: &tx.ID,
		AccountID:     &tx.AccountID,
		CategoryID:    tx.CategoryID,
		Amount:        tx.Amount,
		Delta:         effect.Delta(),
		BalanceAfter:  &balance,
		OccurredAt:    time.Now().UTC(),
	}

	if budget := effect.CurrentBudget(); budget != nil {
		id, spent := budget.BudgetID, budget.SpentAfter
		event.BudgetID = &id
		event.SpentAfter = &spent
	}

	return event
}

// NewBudgetReconciledEvent reports a budget whose spent total was rewritten by reconciliation
func NewBudgetReconciledEvent(budgetID, categoryID uuid.UUID, before, after decimal.Decimal) *LedgerEvent {
	return &LedgerEvent{
		Type:       BudgetReconciled,
		BudgetID:   &budgetID,
		CategoryID: &categoryID,
		Amount:     after,
		Delta:      after.Sub(before),
		SpentAfter: &after,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var event LedgerEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
