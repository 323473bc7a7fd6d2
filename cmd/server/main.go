package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finances-api/internal/config"
	"finances-api/internal/database"
	"finances-api/internal/events"
	"finances-api/internal/middleware"
	"finances-api/internal/repositories"
	"finances-api/internal/router"
	"finances-api/internal/scheduler"
	"finances-api/internal/services"
	"finances-api/internal/validation"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := config.Load()
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		logger.Info("ledger events disabled, AMQP_URL not set")
		return events.NewNopPublisher()
	}

	publisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.RoutingKey, logger)
	if err != nil {
		logger.Warn("event broker unavailable, ledger events will not be published", "error", err)
		return events.NewNopPublisher()
	}
	return publisher
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ownerRepo := repositories.NewOwnerRepository(db.DB)
	accountRepo := repositories.NewAccountRepository(db.DB)
	categoryRepo := repositories.NewCategoryRepository(db.DB)
	budgetRepo := repositories.NewBudgetRepository(db.DB)
	transactionRepo := repositories.NewTransactionRepository(db.DB)
	ledgerRepo := repositories.NewLedgerRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db.DB)
	blacklistRepo := repositories.NewBlacklistedTokenRepository(db.DB)

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	metrics := services.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	auditService := services.NewAuditService(auditRepo, logger)
	auditLogger := services.NewAuditLogger(logger)
	ledgerValidator := validation.NewLedgerValidator(accountRepo, categoryRepo, budgetRepo)
	passwordService := services.NewPasswordService(cfg.Security.BCryptCost, cfg.Security.PasswordMinLength)
	tokenService := services.NewTokenService(&cfg.JWT)

	ownerService := services.NewOwnerService(ownerRepo, passwordService, auditService, metrics, logger)
	authService := services.NewAuthService(ownerRepo, refreshTokenRepo, blacklistRepo, passwordService, tokenService, auditService, metrics, logger)
	reconciliationService := services.NewReconciliationService(budgetRepo, auditLogger, auditService, metrics, publisher, logger)

	if cfg.Security.AdminUsername != "" {
		if _, err := ownerService.EnsureAdmin(ctx, cfg.Security.AdminUsername, cfg.Security.AdminEmail, cfg.Security.AdminPassword); err != nil {
			return fmt.Errorf("failed to ensure admin owner: %w", err)
		}
	}

	jobs := scheduler.New(reconciliationService, authService, auditService, logger)
	if _, err := jobs.Configure(cfg); err != nil {
		return err
	}
	jobs.Start()

	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst)
	go rateLimiter.Run(ctx)

	e := router.New(router.Dependencies{
		Health:         db,
		Owners:         ownerService,
		Accounts:       services.NewAccountService(accountRepo, ownerRepo, ledgerValidator, auditService, logger),
		Categories:     services.NewCategoryService(categoryRepo, ledgerValidator, auditService, logger),
		Budgets:        services.NewBudgetService(budgetRepo, accountRepo, ledgerValidator, auditService, logger),
		Transactions:   services.NewTransactionService(transactionRepo, accountRepo, ledgerRepo, ledgerValidator, auditService, auditLogger, metrics, publisher, cfg.Ledger.RefundOnDelete, logger),
		Reconciliation: reconciliationService,
		Audit:          auditService,
		Auth:           authService,
		Tokens:         tokenService,
		Blacklist:      blacklistRepo,
		RateLimiter:    rateLimiter,
		AllowOrigins:   cfg.Server.CORSAllowOrigins,
		Gatherer:       prometheus.DefaultGatherer,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           e,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting finances api", "addr", server.Addr, "environment", cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	jobs.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
