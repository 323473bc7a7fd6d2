package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrDescriptionRequired = errors.New("description is required")
)

// Transaction is a single debit against an account, classified by category.
// Date is set once on insert and never rewritten.
type Transaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"account"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"category"`
	BudgetID    *uuid.UUID      `gorm:"type:uuid;index" json:"budget,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Date        time.Time       `gorm:"not null;index;<-:create" json:"date"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`

	Account  *Account  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	Budget   *Budget   `gorm:"foreignKey:BudgetID;constraint:OnDelete:SET NULL" json:"-"`
}

// BeforeCreate hook for Transaction
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	now := time.Now().UTC()
	if t.Date.IsZero() {
		t.Date = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

// BeforeUpdate hook for Transaction
func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
		return nil
	}

	t.UpdatedAt = time.Now().UTC()
	return t.Validate()
}

// Validate validates the transaction fields
func (t *Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return errors.New("account is required")
	}

	if !t.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}

	if strings.TrimSpace(t.Description) == "" {
		return ErrDescriptionRequired
	}

	return nil
}

// HasCategory reports whether the transaction is classified
func (t *Transaction) HasCategory() bool {
	return t.CategoryID != nil && *t.CategoryID != uuid.Nil
}

// InCategory reports whether the transaction is classified under categoryID
func (t *Transaction) InCategory(categoryID uuid.UUID) bool {
	return t.HasCategory() && *t.CategoryID == categoryID
}

// TableName returns the table name for Transaction
func (t *Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) String() string {
	return fmt.Sprintf("Value: %s - Description: %s", t.Amount.StringFixed(2), t.Description)
}
