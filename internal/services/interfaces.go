package services

import (
	"context"
	"errors"
	"time"

	"finances-api/internal/dto"
	"finances-api/internal/models"
	"finances-api/internal/repositories"

	"github.com/google/uuid"
)

// ErrForbidden is returned when the requester does not own the record
var ErrForbidden = errors.New("you do not have permission to perform this action")

// Requester is the authenticated principal behind a call
type Requester struct {
	OwnerID   uuid.UUID
	IsAdmin   bool
	IPAddress string
	UserAgent string
}

// Scope returns the owner a listing is limited to, or nil when the requester sees everything
func (r Requester) Scope() *uuid.UUID {
	if r.IsAdmin {
		return nil
	}
	id := r.OwnerID
	return &id
}

// CanAccess reports whether the requester may act on a record held by ownerID
func (r Requester) CanAccess(ownerID *uuid.UUID) bool {
	if r.IsAdmin {
		return true
	}
	return ownerID != nil && *ownerID == r.OwnerID && r.OwnerID != uuid.Nil
}

func (r Requester) ownerRef() *uuid.UUID {
	if r.OwnerID == uuid.Nil {
		return nil
	}
	id := r.OwnerID
	return &id
}

type OwnerServiceInterface interface {
	CreateOwner(ctx context.Context, requester Requester, req *dto.CreateOwnerRequest) (*models.Owner, error)
	GetOwner(ctx context.Context, requester Requester, id uuid.UUID) (*models.Owner, error)
	ListOwners(ctx context.Context, requester Requester) ([]models.Owner, error)
	PatchOwner(ctx context.Context, requester Requester, id uuid.UUID, patch dto.PatchRequest) (*models.Owner, error)
	DeleteOwner(ctx context.Context, requester Requester, id uuid.UUID) error
	GetOwnerActivity(ctx context.Context, requester Requester, id uuid.UUID, limit int) ([]*models.AuditLog, error)
	EnsureAdmin(ctx context.Context, username, email, password string) (*models.Owner, error)
}

type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, requester Requester, req *dto.CreateAccountRequest) (*models.Account, error)
	GetAccount(ctx context.Context, requester Requester, id uuid.UUID) (*models.Account, error)
	ListAccounts(ctx context.Context, requester Requester) ([]models.Account, error)
	PatchAccount(ctx context.Context, requester Requester, id uuid.UUID, patch dto.PatchRequest) (*models.Account, error)
	DeleteAccount(ctx context.Context, requester Requester, id uuid.UUID) error
}

type CategoryServiceInterface interface {
	CreateCategory(ctx context.Context, requester Requester, req *dto.CategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, requester Requester, id uuid.UUID, req *dto.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, requester Requester, id uuid.UUID) error
}

type BudgetServiceInterface interface {
	CreateBudget(ctx context.Context, requester Requester, req *dto.BudgetRequest) (*models.Budget, error)
	GetBudget(ctx context.Context, requester Requester, id uuid.UUID) (*models.Budget, error)
	ListBudgets(ctx context.Context, requester Requester) ([]models.Budget, error)
	ReplaceBudget(ctx context.Context, requester Requester, id uuid.UUID, req *dto.BudgetRequest) (*models.Budget, error)
	DeleteBudget(ctx context.Context, requester Requester, id uuid.UUID) error
}

// TransactionServiceInterface runs every transaction write through validation and the ledger
type TransactionServiceInterface interface {
	CreateTransaction(ctx context.Context, requester Requester, req *dto.CreateTransactionRequest) (*models.Transaction, error)
	GetTransaction(ctx context.Context, requester Requester, id uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, requester Requester) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, requester Requester, id uuid.UUID, req *dto.UpdateTransactionRequest) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, requester Requester, id uuid.UUID) error
}

// ReconciliationServiceInterface compares stored budget totals with the transactions behind them
type ReconciliationServiceInterface interface {
	ReconcileBudget(ctx context.Context, requester Requester, id uuid.UUID, repair bool) (*BudgetDrift, error)
	DriftReport(ctx context.Context) ([]BudgetDrift, error)
}

type AuditServiceInterface interface {
	LogChange(ctx context.Context, requester Requester, action, resource string, resourceID uuid.UUID, metadata map[string]interface{})
	LogAuthEvent(ctx context.Context, ownerID *uuid.UUID, action, ipAddress, userAgent string, metadata map[string]interface{})
	GetOwnerActivity(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.AuditLog, error)
	GetResourceHistory(ctx context.Context, resource string, resourceID uuid.UUID) ([]*models.AuditLog, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type MetricsRecorderInterface interface {
	IncrementCounter(name string, tags map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
	RecordGauge(name string, value float64, tags map[string]string)
}

type AuthServiceInterface interface {
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.TokenResponse, error)
	RefreshTokens(ctx context.Context, refreshToken, ipAddress, userAgent string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessToken, ipAddress, userAgent string) error
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type TokenServiceInterface interface {
	GenerateAccessToken(owner *models.Owner) (string, time.Time, error)
	GenerateRefreshToken(ownerID uuid.UUID) (string, time.Time, error)
	ValidateAccessToken(tokenString string) (*models.CustomClaims, error)
	ValidateRefreshToken(tokenString string) (*models.CustomClaims, error)
	ExtractTokenFromHeader(authHeader string) (string, error)
	GetJTI(tokenString string) (string, error)
	GetTokenExpiry(tokenString string) (time.Time, error)
}

type PasswordServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	ComparePassword(password, hash string) bool
}

// AuditLoggerInterface writes structured ledger events to the application log
type AuditLoggerInterface interface {
	LogLedgerOperation(ctx context.Context, operation string, effect *repositories.LedgerEffect, durationMs int64)
	LogLedgerRejected(ctx context.Context, operation string, accountID *uuid.UUID, reason string)
	LogBalanceUpdate(ctx context.Context, accountID uuid.UUID, oldBalance, newBalance string, transactionID uuid.UUID)
	LogBudgetSpentUpdate(ctx context.Context, budgetID uuid.UUID, oldSpent, newSpent string, transactionID uuid.UUID)
	LogBudgetDrift(ctx context.Context, budgetID uuid.UUID, stored, recomputed string, repaired bool)
	LogEventPublishFailed(ctx context.Context, eventType string, errorMsg string)
}
