package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finances-api/internal/config"
	"finances-api/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
	config *config.DatabaseConfig
}

func New(cfg *config.DatabaseConfig) (*DB, error) {
	logLevel := logger.Warn
	if cfg.LogQueries {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     db,
		config: cfg,
	}, nil
}

// AutoMigrate creates the ledger tables in dependency order
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.Owner{},
		&models.Account{},
		&models.Category{},
		&models.Budget{},
		&models.Transaction{},
		&models.AuditLog{},
		&models.RefreshToken{},
		&models.BlacklistedToken{},
	)
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) CreateIndexes() error {
	queries := []string{
		"CREATE INDEX IF NOT EXISTS idx_accounts_owner_id ON accounts(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_categories_name ON categories(name)",
		// the engine always consults the oldest budget of a category
		"CREATE INDEX IF NOT EXISTS idx_budgets_category_created ON budgets(category_id, created_at, id)",
		"CREATE INDEX IF NOT EXISTS idx_budgets_account_id ON budgets(account_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_category_date ON transactions(category_id, date)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_owner_id ON audit_logs(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at)",
	}

	for _, query := range queries {
		if err := db.DB.Exec(query).Error; err != nil {
			slog.Warn("failed to create index", "query", query, "error", err)
		}
	}

	return nil
}

// Initialize opens the connection and brings the schema up to date.
// SQL migrations run when AUTO_MIGRATE is on; otherwise, or when they fail, gorm AutoMigrate is used.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	migrated, err := RunMigrationsIfEnabled(ctx, &cfg.Database)
	if err != nil {
		slog.Warn("migration runner failed, falling back to gorm AutoMigrate", "error", err)
	}

	if !migrated {
		if err := db.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if err := db.CreateIndexes(); err != nil {
		slog.Warn("failed to create some indexes", "error", err)
	}

	slog.Info("database initialized", "host", cfg.Database.Host, "name", cfg.Database.Name)

	return db, nil
}
