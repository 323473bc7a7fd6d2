package models

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const MaxAccountNameLength = 65

var (
	ErrNegativeBalance     = errors.New("balance must not be negative")
	ErrInsufficientBalance = errors.New("insufficient balance for the transaction")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
)

// Account holds a balance for an owner. Balance only moves through the ledger.
type Account struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID   *uuid.UUID      `gorm:"type:uuid;index" json:"owner"`
	Name      string          `gorm:"type:varchar(65);not null" json:"name"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"not null;<-:create" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`

	Owner *Owner `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate hook for Account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	return a.Validate()
}

// BeforeUpdate hook for Account
func (a *Account) BeforeUpdate(tx *gorm.DB) error {
	if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
		return nil
	}

	a.UpdatedAt = time.Now().UTC()
	return a.Validate()
}

// Validate validates the account fields
func (a *Account) Validate() error {
	if a.Name == "" {
		return errors.New("account name is required")
	}

	if utf8.RuneCountInString(a.Name) > MaxAccountNameLength {
		return errors.New("account name must be at most 65 characters")
	}

	if a.Balance.IsNegative() {
		return ErrNegativeBalance
	}

	return nil
}

// IsOwnedBy reports whether the account belongs to the given owner
func (a *Account) IsOwnedBy(ownerID uuid.UUID) bool {
	return a.OwnerID != nil && *a.OwnerID == ownerID
}

// CanCover reports whether the balance is enough to pay amount
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// Debit takes amount out of the balance. The balance never goes below zero.
func (a *Account) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}

	if !a.CanCover(amount) {
		return ErrInsufficientBalance
	}

	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Credit puts amount back into the balance
func (a *Account) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}

	a.Balance = a.Balance.Add(amount)
	return nil
}

// ApplyDelta debits a positive delta and credits a negative one.
// A positive delta larger than the balance is rejected without changes.
func (a *Account) ApplyDelta(delta decimal.Decimal) error {
	if delta.IsPositive() && !a.CanCover(delta) {
		return ErrInsufficientBalance
	}

	a.Balance = a.Balance.Sub(delta)
	return nil
}

// TableName returns the table name for Account
func (a *Account) TableName() string {
	return "accounts"
}

func (a *Account) String() string {
	return a.Name
}
