package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrExceedsBudget       = errors.New("the value of the transaction exceeds the budget for this category")
	ErrNegativeBudget      = errors.New("budget amount must not be negative")
	ErrInvalidBudgetPeriod = errors.New("budget end date must not be before start date")
)

// Budget caps spending on a category between StartDate and EndDate (both days inclusive).
// Spent is maintained by the ledger as transactions on the category come and go.
type Budget struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;index" json:"category"`
	AccountID  *uuid.UUID      `gorm:"type:uuid;index" json:"account"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	StartDate  time.Time       `gorm:"not null" json:"start_date"`
	EndDate    time.Time       `gorm:"not null" json:"end_date"`
	Spent      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"spent"`
	CreatedAt  time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	Account  *Account  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}

	return b.Validate()
}

func (b *Budget) BeforeUpdate(tx *gorm.DB) error {
	if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
		return nil
	}

	b.UpdatedAt = time.Now().UTC()
	return b.Validate()
}

func (b *Budget) Validate() error {
	if b.CategoryID == uuid.Nil {
		return errors.New("category is required")
	}

	if b.Amount.IsNegative() {
		return ErrNegativeBudget
	}

	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return errors.New("budget period is required")
	}

	if b.EndDate.Before(b.StartDate) {
		return ErrInvalidBudgetPeriod
	}

	return nil
}

// Exceeded reports whether a single transaction amount is over the cap.
// The check is against the allocated amount, not the remaining room.
func (b *Budget) Exceeded(amount decimal.Decimal) bool {
	return amount.GreaterThan(b.Amount)
}

// AddSpent moves the running total by delta, which may be negative
func (b *Budget) AddSpent(delta decimal.Decimal) {
	b.Spent = b.Spent.Add(delta)
}

// Remaining is the part of the cap not yet spent
func (b *Budget) Remaining() decimal.Decimal {
	return b.Amount.Sub(b.Spent)
}

// Period returns the half-open time range [from, until) covered by the budget.
// The end day is included in full.
func (b *Budget) Period() (from, until time.Time) {
	from = truncateToDay(b.StartDate)
	until = truncateToDay(b.EndDate).AddDate(0, 0, 1)
	return from, until
}

// Covers reports whether t falls inside the budget period
func (b *Budget) Covers(t time.Time) bool {
	from, until := b.Period()
	return !t.Before(from) && t.Before(until)
}

// SameTerms reports whether other has the same account, category, amount and period
func (b *Budget) SameTerms(other *Budget) bool {
	sameAccount := (b.AccountID == nil && other.AccountID == nil) ||
		(b.AccountID != nil && other.AccountID != nil && *b.AccountID == *other.AccountID)

	return sameAccount &&
		b.CategoryID == other.CategoryID &&
		b.Amount.Equal(other.Amount) &&
		sameDay(b.StartDate, other.StartDate) &&
		sameDay(b.EndDate, other.EndDate)
}

// SameScope reports whether other counts the same transactions: same category and period
func (b *Budget) SameScope(other *Budget) bool {
	return b.CategoryID == other.CategoryID &&
		sameDay(b.StartDate, other.StartDate) &&
		sameDay(b.EndDate, other.EndDate)
}

func (b *Budget) TableName() string {
	return "budgets"
}

func (b *Budget) String() string {
	categoryName := b.CategoryID.String()
	if b.Category != nil {
		categoryName = b.Category.Name
	}
	return fmt.Sprintf("Budget to %s - %s", categoryName, b.Amount.StringFixed(2))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return truncateToDay(a).Equal(truncateToDay(b))
}
