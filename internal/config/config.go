package config

import (
	"crypto/rsa"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Security SecurityConfig
	Ledger   LedgerConfig
	Events   EventsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	Environment      string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	CORSAllowOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	SeedDatabase    bool
	MigrationsPath  string
	SeedsPath       string
	LogQueries      bool
}

type JWTConfig struct {
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	PrivateKey           *rsa.PrivateKey
	PublicKey            *rsa.PublicKey
	Issuer               string
}

type SecurityConfig struct {
	BCryptCost         int
	RateLimitPerSecond int
	RateLimitBurst     int
	PasswordMinLength  int
	AdminUsername      string
	AdminEmail         string
	AdminPassword      string
	// TokenCleanupSchedule is a cron spec for purging expired tokens; "off" disables it
	TokenCleanupSchedule string
	// AuditRetention is how long audit logs are kept; zero keeps them forever
	AuditRetention time.Duration
}

// LedgerConfig controls how transaction side effects are applied to accounts and budgets
type LedgerConfig struct {
	// RefundOnDelete credits the account back when a transaction is deleted
	RefundOnDelete bool
	// ReconcileSchedule is a cron spec for the budget drift report; empty disables it
	ReconcileSchedule string
}

type EventsConfig struct {
	AMQPURL    string
	Exchange   string
	RoutingKey string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			Environment:  getEnv("APP_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "finances_user"),
			Password:        getEnv("DB_PASSWORD", "finances_password"),
			Name:            getEnv("DB_NAME", "finances_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			AutoMigrate:     getBoolEnv("AUTO_MIGRATE", false),
			SeedDatabase:    getBoolEnv("SEED_DATABASE", false),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "db/migrations"),
			SeedsPath:       getEnv("SEEDS_PATH", "db/seeds"),
			LogQueries:      getBoolEnv("DB_LOG_QUERIES", false),
		},
		Security: SecurityConfig{
			BCryptCost:           getIntEnv("BCRYPT_COST", 12),
			RateLimitPerSecond:   getIntEnv("RATE_LIMIT_PER_SECOND", 5),
			RateLimitBurst:       getIntEnv("RATE_LIMIT_BURST", 10),
			PasswordMinLength:    getIntEnv("PASSWORD_MIN_LENGTH", 8),
			AdminUsername:        getEnv("ADMIN_USERNAME", ""),
			AdminEmail:           getEnv("ADMIN_EMAIL", ""),
			AdminPassword:        getEnv("ADMIN_PASSWORD", ""),
			TokenCleanupSchedule: getEnv("TOKEN_CLEANUP_SCHEDULE", "@hourly"),
			AuditRetention:       getDurationEnv("AUDIT_RETENTION", 0),
		},
		JWT: JWTConfig{
			AccessTokenDuration:  getDurationEnv("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour),
			RefreshTokenDuration: getDurationEnv("JWT_REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			Issuer:               getEnv("JWT_ISSUER", "finances-api"),
		},
		Ledger: LedgerConfig{
			RefundOnDelete:    getBoolEnv("LEDGER_REFUND_ON_DELETE", true),
			ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", ""),
		},
		Events: EventsConfig{
			AMQPURL:    getEnv("AMQP_URL", ""),
			Exchange:   getEnv("AMQP_EXCHANGE", "finances.ledger"),
			RoutingKey: getEnv("AMQP_ROUTING_KEY", "ledger.events"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	config.Server.CORSAllowOrigins = getListEnv("CORS_ALLOW_ORIGINS", []string{"*"})
	if config.IsProduction() && len(config.Server.CORSAllowOrigins) == 1 && config.Server.CORSAllowOrigins[0] == "*" {
		slog.Warn("CORS_ALLOW_ORIGINS not set in production, every origin is allowed")
	}

	var err error
	config.JWT.PrivateKey, config.JWT.PublicKey, err = loadJWTKeys(config.IsProduction())
	if err != nil {
		log.Fatalf("failed to load JWT keys: %v", err)
	}

	return config
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// EventsEnabled reports whether ledger events should be published to a broker
func (c *Config) EventsEnabled() bool {
	return c.Events.AMQPURL != ""
}

// SlogLevel maps the configured log level onto slog levels, defaulting to info
func (c *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping blank entries
func getListEnv(key string, defaultValue []string) []string {
	var values []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
