package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finances-api/internal/config"
	"finances-api/internal/services"

	"github.com/robfig/cron/v3"
)

// Disabled turns off a schedule that has a default
const Disabled = "off"

const jobTimeout = 2 * time.Minute

// Scheduler runs the periodic maintenance jobs: the budget drift report,
// the expired token purge and the audit log retention purge.
type Scheduler struct {
	cron           *cron.Cron
	reconciliation services.ReconciliationServiceInterface
	auth           services.AuthServiceInterface
	audit          services.AuditServiceInterface
	auditRetention time.Duration
	logger         *slog.Logger
}

func New(
	reconciliation services.ReconciliationServiceInterface,
	auth services.AuthServiceInterface,
	audit services.AuditServiceInterface,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		reconciliation: reconciliation,
		auth:           auth,
		audit:          audit,
		logger:         logger,
	}
}

// Configure registers the jobs enabled in cfg and returns how many were scheduled
func (s *Scheduler) Configure(cfg *config.Config) (int, error) {
	jobs := 0

	if spec := cfg.Ledger.ReconcileSchedule; enabled(spec) {
		if _, err := s.cron.AddFunc(spec, s.runJob("budget_drift_report", s.ReportDrift)); err != nil {
			return jobs, fmt.Errorf("invalid RECONCILE_SCHEDULE %q: %w", spec, err)
		}
		jobs++
	}

	if spec := cfg.Security.TokenCleanupSchedule; enabled(spec) {
		if _, err := s.cron.AddFunc(spec, s.runJob("token_cleanup", s.PurgeTokens)); err != nil {
			return jobs, fmt.Errorf("invalid TOKEN_CLEANUP_SCHEDULE %q: %w", spec, err)
		}
		jobs++
	}

	if cfg.Security.AuditRetention > 0 {
		s.auditRetention = cfg.Security.AuditRetention
		if _, err := s.cron.AddFunc("@daily", s.runJob("audit_retention", s.PurgeAuditLogs)); err != nil {
			return jobs, fmt.Errorf("failed to schedule audit retention: %w", err)
		}
		jobs++
	}

	return jobs, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stopped before running jobs finished")
	}
}

// ReportDrift logs every budget whose stored spent disagrees with its transactions
func (s *Scheduler) ReportDrift(ctx context.Context) error {
	drifting, err := s.reconciliation.DriftReport(ctx)
	if err != nil {
		return err
	}
	for _, drift := range drifting {
		s.logger.WarnContext(ctx, "budget spent drift detected",
			"budget_id", drift.BudgetID,
			"stored", drift.Stored.StringFixed(2),
			"recomputed", drift.Recomputed.StringFixed(2))
	}
	return nil
}

func (s *Scheduler) PurgeTokens(ctx context.Context) error {
	removed, err := s.auth.PurgeExpiredTokens(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "expired tokens purged", "rows", removed)
	}
	return nil
}

func (s *Scheduler) PurgeAuditLogs(ctx context.Context) error {
	removed, err := s.audit.PurgeOlderThan(ctx, s.auditRetention)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "old audit logs purged", "rows", removed, "retention", s.auditRetention.String())
	}
	return nil
}

func (s *Scheduler) runJob(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	}
}

func enabled(spec string) bool {
	return spec != "" && spec != Disabled
}
