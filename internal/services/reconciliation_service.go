package services

import (
	"context"
	"log/slog"
	"strconv"

	"finances-api/internal/events"
	"finances-api/internal/models"
	"finances-api/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetDrift compares the stored spent of a budget with the sum of its transactions
type BudgetDrift struct {
	BudgetID   uuid.UUID       `json:"budget"`
	CategoryID uuid.UUID       `json:"category"`
	Stored     decimal.Decimal `json:"stored_spent"`
	Recomputed decimal.Decimal `json:"recomputed_spent"`
	Difference decimal.Decimal `json:"difference"`
	Repaired   bool            `json:"repaired"`
}

// Drifted reports whether the stored total disagrees with the transactions
func (d BudgetDrift) Drifted() bool {
	return !d.Difference.IsZero()
}

// ReconciliationService recomputes budget totals on demand. The incremental totals kept by
// the ledger stay authoritative; a repair only happens when an admin asks for it.
type ReconciliationService struct {
	budgetRepo  repositories.BudgetRepositoryInterface
	auditLogger AuditLoggerInterface
	audit       AuditServiceInterface
	metrics     MetricsRecorderInterface
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewReconciliationService(
	budgetRepo repositories.BudgetRepositoryInterface,
	auditLogger AuditLoggerInterface,
	audit AuditServiceInterface,
	metrics MetricsRecorderInterface,
	publisher events.Publisher,
	logger *slog.Logger,
) ReconciliationServiceInterface {
	return &ReconciliationService{
		budgetRepo:  budgetRepo,
		auditLogger: auditLogger,
		audit:       audit,
		metrics:     metrics,
		publisher:   publisher,
		logger:      logger,
	}
}

// ReconcileBudget reports the drift of one budget and optionally overwrites spent with the recomputed value
func (s *ReconciliationService) ReconcileBudget(ctx context.Context, requester Requester, id uuid.UUID, repair bool) (*BudgetDrift, error) {
	if !requester.IsAdmin {
		return nil, ErrForbidden
	}

	budget, err := s.budgetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	drift, err := s.measure(ctx, budget)
	if err != nil {
		return nil, err
	}

	if repair && drift.Drifted() {
		saved, err := s.budgetRepo.RecomputeSpent(ctx, id, decimal.Zero)
		if err != nil {
			return nil, err
		}
		drift.Recomputed = saved.Spent
		drift.Repaired = true

		if err := s.publisher.Publish(ctx, events.NewBudgetReconciledEvent(id, budget.CategoryID, drift.Stored, saved.Spent)); err != nil {
			s.auditLogger.LogEventPublishFailed(ctx, events.BudgetReconciled, err.Error())
			s.metrics.IncrementCounter(MetricEventFailed, nil)
		} else {
			s.metrics.IncrementCounter(MetricEventPublished, nil)
		}
	}

	s.auditLogger.LogBudgetDrift(ctx, id, drift.Stored.StringFixed(2), drift.Recomputed.StringFixed(2), drift.Repaired)
	s.audit.LogChange(ctx, requester, models.AuditActionReconcile, models.AuditResourceBudget, id, map[string]interface{}{
		"stored_spent":     drift.Stored.StringFixed(2),
		"recomputed_spent": drift.Recomputed.StringFixed(2),
		"repaired":         drift.Repaired,
	})
	s.metrics.IncrementCounter(MetricBudgetReconciled, map[string]string{"repaired": strconv.FormatBool(drift.Repaired)})

	return drift, nil
}

// DriftReport measures every budget and returns the ones that drifted. Nothing is repaired.
func (s *ReconciliationService) DriftReport(ctx context.Context) ([]BudgetDrift, error) {
	budgets, err := s.budgetRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var drifting []BudgetDrift
	for i := range budgets {
		drift, err := s.measure(ctx, &budgets[i])
		if err != nil {
			return nil, err
		}
		if drift.Drifted() {
			s.auditLogger.LogBudgetDrift(ctx, drift.BudgetID, drift.Stored.StringFixed(2), drift.Recomputed.StringFixed(2), false)
			drifting = append(drifting, *drift)
		}
	}

	s.metrics.RecordGauge(MetricBudgetsDrifting, float64(len(drifting)), nil)
	s.logger.InfoContext(ctx, "budget drift report", "budgets", len(budgets), "drifting", len(drifting))
	return drifting, nil
}

func (s *ReconciliationService) measure(ctx context.Context, budget *models.Budget) (*BudgetDrift, error) {
	recomputed, err := s.budgetRepo.SumSpent(ctx, budget)
	if err != nil {
		return nil, err
	}

	return &BudgetDrift{
		BudgetID:   budget.ID,
		CategoryID: budget.CategoryID,
		Stored:     budget.Spent,
		Recomputed: recomputed,
		Difference: budget.Spent.Sub(recomputed),
	}, nil
}
