package database

import (
	"fmt"
	"testing"
	"time"

	"finances-api/internal/config"
	"finances-api/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory sqlite database with foreign keys enforced.
// A single connection keeps the in-memory schema alive for the whole test.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), gormConfig)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	testDB := &DB{
		DB: db,
		config: &config.DatabaseConfig{
			MaxConnections: 1,
			MaxIdleConns:   1,
		},
	}

	if err := testDB.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return testDB
}

func CreateTestOwner(t *testing.T, db *DB, username string) *models.Owner {
	t.Helper()

	owner := &models.Owner{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "hashed_password",
		FirstName:    "Test",
		LastName:     "Owner",
		Role:         models.RoleOwner,
	}

	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("failed to create test owner: %v", err)
	}

	return owner
}

func CreateTestAdminOwner(t *testing.T, db *DB, username string) *models.Owner {
	t.Helper()

	owner := &models.Owner{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "hashed_password",
		FirstName:    "Admin",
		LastName:     "Owner",
		Role:         models.RoleAdmin,
	}

	if err := db.Create(owner).Error; err != nil {
		t.Fatalf("failed to create test admin owner: %v", err)
	}

	return owner
}

func CreateTestAccount(t *testing.T, db *DB, ownerID *uuid.UUID, name string, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		OwnerID: ownerID,
		Name:    name,
		Balance: decimal.NewFromInt(balance),
	}

	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}

	return account
}

func CreateTestCategory(t *testing.T, db *DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}

	return category
}

// CreateTestBudget creates a budget covering the current month
func CreateTestBudget(t *testing.T, db *DB, category *models.Category, account *models.Account, amount int64) *models.Budget {
	t.Helper()

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	budget := &models.Budget{
		CategoryID: category.ID,
		Amount:     decimal.NewFromInt(amount),
		StartDate:  start,
		EndDate:    start.AddDate(0, 1, -1),
	}
	if account != nil {
		budget.AccountID = &account.ID
	}

	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}

	return budget
}

func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	tables := []string{
		"transactions",
		"budgets",
		"categories",
		"accounts",
		"audit_logs",
		"refresh_tokens",
		"blacklisted_tokens",
		"owners",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("failed to cleanup table %s: %v", table, err)
		}
	}
}
