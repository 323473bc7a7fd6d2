package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"finances-api/internal/dto"
	"finances-api/internal/events"
	"finances-api/internal/models"
	"finances-api/internal/repositories"
	"finances-api/internal/validation"

	"github.com/google/uuid"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// TransactionService records spending. Every write is validated, applied by the ledger in
// one database transaction, then reported to the audit trail, metrics and the event bus.
type TransactionService struct {
	transactionRepo repositories.TransactionRepositoryInterface
	accountRepo     repositories.AccountRepositoryInterface
	ledger          repositories.LedgerRepositoryInterface
	validator       *validation.LedgerValidator
	auditService    AuditServiceInterface
	auditLogger     AuditLoggerInterface
	metrics         MetricsRecorderInterface
	publisher       events.Publisher
	refundOnDelete  bool
	logger          *slog.Logger
}

func NewTransactionService(
	transactionRepo repositories.TransactionRepositoryInterface,
	accountRepo repositories.AccountRepositoryInterface,
	ledger repositories.LedgerRepositoryInterface,
	validator *validation.LedgerValidator,
	auditService AuditServiceInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	publisher events.Publisher,
	refundOnDelete bool,
	logger *slog.Logger,
) TransactionServiceInterface {
	return &TransactionService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		ledger:          ledger,
		validator:       validator,
		auditService:    auditService,
		auditLogger:     auditLogger,
		metrics:         metrics,
		publisher:       publisher,
		refundOnDelete:  refundOnDelete,
		logger:          logger,
	}
}

// CreateTransaction debits the account and counts the amount against the category's budget
func (s *TransactionService) CreateTransaction(ctx context.Context, requester Requester, req *dto.CreateTransactionRequest) (*models.Transaction, error) {
	start := time.Now()

	// access comes before validation: the balance and budget checks must not answer strangers
	if req.Account != nil {
		if err := s.checkAccountAccess(ctx, requester, *req.Account); err != nil {
			return nil, s.rejected(ctx, OperationCreate, req.Account, err)
		}
	}
	if err := s.validator.ValidateTransaction(ctx, req.ToInput()); err != nil {
		return nil, s.rejected(ctx, OperationCreate, req.Account, err)
	}

	transaction := &models.Transaction{
		AccountID:   *req.Account,
		CategoryID:  req.Category,
		Amount:      *req.Amount,
		Description: *req.Description,
	}

	effect, err := s.ledger.CreateTransaction(ctx, transaction)
	if err != nil {
		return nil, s.rejected(ctx, OperationCreate, req.Account, err)
	}

	s.committed(ctx, requester, OperationCreate, events.TransactionCreated, models.AuditActionCreate, effect, start)
	return &effect.Transaction, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, requester Requester, id uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccountAccess(ctx, requester, transaction.AccountID); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, requester Requester) ([]models.Transaction, error) {
	return s.transactionRepo.List(ctx, requester.Scope())
}

// UpdateTransaction applies only the difference between the old and new amount to the balance.
// A category change moves the amount from the old category's budget to the new one.
func (s *TransactionService) UpdateTransaction(ctx context.Context, requester Requester, id uuid.UUID, req *dto.UpdateTransactionRequest) (*models.Transaction, error) {
	start := time.Now()

	current, err := s.GetTransaction(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateTransactionChanges(ctx, req.ToInput()); err != nil {
		return nil, s.rejected(ctx, OperationUpdate, &current.AccountID, err)
	}

	effect, err := s.ledger.UpdateTransaction(ctx, id, req.ToChanges())
	if err != nil {
		return nil, s.rejected(ctx, OperationUpdate, &current.AccountID, err)
	}

	s.committed(ctx, requester, OperationUpdate, events.TransactionUpdated, models.AuditActionUpdate, effect, start)
	return &effect.Transaction, nil
}

// DeleteTransaction takes the amount off the budget and, when refunds are on, returns it to the account
func (s *TransactionService) DeleteTransaction(ctx context.Context, requester Requester, id uuid.UUID) error {
	start := time.Now()

	current, err := s.GetTransaction(ctx, requester, id)
	if err != nil {
		return err
	}

	effect, err := s.ledger.DeleteTransaction(ctx, id, s.refundOnDelete)
	if err != nil {
		return s.rejected(ctx, OperationDelete, &current.AccountID, err)
	}

	s.committed(ctx, requester, OperationDelete, events.TransactionDeleted, models.AuditActionDelete, effect, start)
	return nil
}

func (s *TransactionService) checkAccountAccess(ctx context.Context, requester Requester, accountID uuid.UUID) error {
	if requester.IsAdmin {
		return nil
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !requester.CanAccess(account.OwnerID) {
		return ErrForbidden
	}
	return nil
}

// committed reports a successful ledger operation. A failed publish is logged and counted
// but never undoes the committed write.
func (s *TransactionService) committed(ctx context.Context, requester Requester, operation, eventType, action string, effect *repositories.LedgerEffect, start time.Time) {
	duration := time.Since(start)

	s.auditLogger.LogLedgerOperation(ctx, operation, effect, duration.Milliseconds())
	s.auditService.LogChange(ctx, requester, action, models.AuditResourceTransaction, effect.Transaction.ID, ledgerMetadata(effect))

	s.metrics.IncrementCounter(MetricLedgerSuccess, map[string]string{"operation": operation})
	s.metrics.RecordProcessingTime(MetricLedgerDuration, duration)
	if operation == OperationCreate {
		s.metrics.RecordGauge(MetricTransactionAmount, effect.Transaction.Amount.InexactFloat64(), nil)
	}

	if err := s.publisher.Publish(ctx, events.NewLedgerEvent(eventType, effect)); err != nil {
		s.auditLogger.LogEventPublishFailed(ctx, eventType, err.Error())
		s.metrics.IncrementCounter(MetricEventFailed, nil)
		return
	}
	s.metrics.IncrementCounter(MetricEventPublished, nil)
}

// rejected logs and counts a refused operation and hands the error back unchanged
func (s *TransactionService) rejected(ctx context.Context, operation string, accountID *uuid.UUID, err error) error {
	reason := rejectionReason(err)
	s.auditLogger.LogLedgerRejected(ctx, operation, accountID, reason)
	s.metrics.IncrementCounter(MetricLedgerRejected, map[string]string{
		"operation": operation,
		"reason":    reason,
	})
	return err
}

func rejectionReason(err error) string {
	if _, ok := validation.AsFieldErrors(err); ok {
		return "validation"
	}

	switch {
	case errors.Is(err, models.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, models.ErrExceedsBudget):
		return "exceeds_budget"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, repositories.ErrAccountNotFound),
		errors.Is(err, repositories.ErrCategoryNotFound),
		errors.Is(err, repositories.ErrTransactionNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func ledgerMetadata(effect *repositories.LedgerEffect) map[string]interface{} {
	metadata := map[string]interface{}{
		"amount":         effect.Transaction.Amount.StringFixed(2),
		"balance_before": effect.BalanceBefore.StringFixed(2),
		"balance_after":  effect.BalanceAfter.StringFixed(2),
	}
	if budget := effect.CurrentBudget(); budget != nil {
		metadata["budget_id"] = budget.BudgetID.String()
		metadata["spent_after"] = budget.SpentAfter.StringFixed(2)
	}
	return metadata
}
