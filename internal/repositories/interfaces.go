package repositories

import (
	"context"
	"time"

	"finances-api/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OwnerRepositoryInterface defines the contract for owner repository operations
type OwnerRepositoryInterface interface {
	Create(ctx context.Context, owner *models.Owner) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Owner, error)
	GetByUsername(ctx context.Context, username string) (*models.Owner, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.Owner, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Owner, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AccountRepositoryInterface defines the contract for account repository operations.
// A nil ownerID on List means every account.
type AccountRepositoryInterface interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	List(ctx context.Context, ownerID *uuid.UUID) ([]models.Account, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepositoryInterface defines the contract for category repository operations
type CategoryRepositoryInterface interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BudgetRepositoryInterface defines the contract for budget repository operations
type BudgetRepositoryInterface interface {
	Create(ctx context.Context, budget *models.Budget) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	List(ctx context.Context, ownerID *uuid.UUID) ([]models.Budget, error)
	ListAll(ctx context.Context) ([]models.Budget, error)
	Update(ctx context.Context, budget *models.Budget) error
	Delete(ctx context.Context, id uuid.UUID) error
	FirstForCategory(ctx context.Context, categoryID uuid.UUID) (*models.Budget, error)
	ExistsWithTerms(ctx context.Context, budget *models.Budget, excludeID *uuid.UUID) (bool, error)
	CountForCategory(ctx context.Context, categoryID uuid.UUID, excludeID *uuid.UUID) (int64, error)
	SumSpent(ctx context.Context, budget *models.Budget) (decimal.Decimal, error)
	RecomputeSpent(ctx context.Context, budgetID uuid.UUID, pending decimal.Decimal) (*models.Budget, error)
}

// TransactionRepositoryInterface covers reads; every write goes through LedgerRepositoryInterface
type TransactionRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, ownerID *uuid.UUID) ([]models.Transaction, error)
}

// LedgerRepositoryInterface applies transaction writes together with their
// balance and budget side effects in a single database transaction
type LedgerRepositoryInterface interface {
	CreateTransaction(ctx context.Context, transaction *models.Transaction) (*LedgerEffect, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, changes TransactionChanges) (*LedgerEffect, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID, refund bool) (*LedgerEffect, error)
}

// AuditLogRepositoryInterface defines the contract for audit log repository operations
type AuditLogRepositoryInterface interface {
	Create(ctx context.Context, log *models.AuditLog) error
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.AuditLog, error)
	GetByResource(ctx context.Context, resource, resourceID string) ([]*models.AuditLog, error)
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// RefreshTokenRepositoryInterface defines the contract for refresh token repository operations
type RefreshTokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenID uuid.UUID) error
	RevokeAllForOwner(ctx context.Context, ownerID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// BlacklistedTokenRepositoryInterface defines the contract for logged out access tokens
type BlacklistedTokenRepositoryInterface interface {
	Create(ctx context.Context, token *models.BlacklistedToken) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
