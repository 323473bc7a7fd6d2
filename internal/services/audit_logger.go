package services

import (
	"context"
	"log/slog"
	"time"

	"finances-api/internal/repositories"

	"github.com/google/uuid"
)

type contextKey string

// CorrelationIDKey carries the request trace id into service calls
const CorrelationIDKey contextKey = "correlation_id"

// WithCorrelationID returns a context that tags ledger log lines with id
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) AuditLoggerInterface {
	return &AuditLogger{
		logger: logger,
	}
}

func (al *AuditLogger) LogLedgerOperation(ctx context.Context, operation string, effect *repositories.LedgerEffect, durationMs int64) {
	attrs := []slog.Attr{
		slog.String("event_type", "ledger_operation"),
		slog.String("operation", operation),
		slog.String("transaction_id", effect.Transaction.ID.String()),
		slog.String("account_id", effect.Transaction.AccountID.String()),
		slog.String("amount", effect.Transaction.Amount.StringFixed(2)),
		slog.String("delta", effect.Delta().StringFixed(2)),
		slog.Int64("duration_ms", durationMs),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	}

	if budget := effect.CurrentBudget(); budget != nil {
		attrs = append(attrs, slog.String("budget_id", budget.BudgetID.String()))
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "ledger operation committed", attrs...)

	if !effect.BalanceBefore.Equal(effect.BalanceAfter) {
		al.LogBalanceUpdate(ctx, effect.Transaction.AccountID,
			effect.BalanceBefore.StringFixed(2), effect.BalanceAfter.StringFixed(2), effect.Transaction.ID)
	}
	for _, budget := range effect.Budgets {
		al.LogBudgetSpentUpdate(ctx, budget.BudgetID,
			budget.SpentBefore.StringFixed(2), budget.SpentAfter.StringFixed(2), effect.Transaction.ID)
	}
}

func (al *AuditLogger) LogLedgerRejected(ctx context.Context, operation string, accountID *uuid.UUID, reason string) {
	account := ""
	if accountID != nil {
		account = accountID.String()
	}

	al.logger.WarnContext(ctx, "ledger operation rejected",
		slog.String("event_type", "ledger_rejected"),
		slog.String("operation", operation),
		slog.String("account_id", account),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogBalanceUpdate(ctx context.Context, accountID uuid.UUID, oldBalance, newBalance string, transactionID uuid.UUID) {
	al.logger.InfoContext(ctx, "balance update",
		slog.String("event_type", "balance_update"),
		slog.String("account_id", accountID.String()),
		slog.String("old_balance", oldBalance),
		slog.String("new_balance", newBalance),
		slog.String("transaction_id", transactionID.String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogBudgetSpentUpdate(ctx context.Context, budgetID uuid.UUID, oldSpent, newSpent string, transactionID uuid.UUID) {
	al.logger.InfoContext(ctx, "budget spent update",
		slog.String("event_type", "budget_spent_update"),
		slog.String("budget_id", budgetID.String()),
		slog.String("old_spent", oldSpent),
		slog.String("new_spent", newSpent),
		slog.String("transaction_id", transactionID.String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogBudgetDrift(ctx context.Context, budgetID uuid.UUID, stored, recomputed string, repaired bool) {
	al.logger.WarnContext(ctx, "budget drift detected",
		slog.String("event_type", "budget_drift"),
		slog.String("budget_id", budgetID.String()),
		slog.String("stored_spent", stored),
		slog.String("recomputed_spent", recomputed),
		slog.Bool("repaired", repaired),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func (al *AuditLogger) LogEventPublishFailed(ctx context.Context, eventType string, errorMsg string) {
	al.logger.ErrorContext(ctx, "ledger event publish failed",
		slog.String("event_type", "event_publish_failed"),
		slog.String("ledger_event", eventType),
		slog.String("error", errorMsg),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
}

func getCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if correlationID, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return correlationID
	}

	return ""
}
