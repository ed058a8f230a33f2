package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
	driver string
}

// Config selects and tunes the database connection
type Config struct {
	Driver                string
	Path                  string
	DSN                   string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
	Verbose               bool
}

// Initialize opens a SQLite database at dbPath
func Initialize(dbPath string, verbose bool) (*DB, error) {
	return Open(Config{Driver: "sqlite", Path: dbPath, Verbose: verbose})
}

// Open creates a new database connection for the configured driver
func Open(cfg Config) (*DB, error) {
	logLevel := logger.Error
	if cfg.Verbose {
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		cfg.Driver = "sqlite"
		dsn, err := sqliteDSN(cfg.Path)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if cfg.Driver == "sqlite" && isMemoryPath(cfg.Path) {
		// each new connection to :memory: would see an empty database
		sqlDB.SetMaxOpenConns(1)
	} else {
		maxOpen := cfg.MaxConnections
		if maxOpen <= 0 {
			maxOpen = 25
		}
		maxIdle := cfg.MaxIdleConnections
		if maxIdle <= 0 {
			maxIdle = 5
		}
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	lifetime := cfg.ConnectionMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	return &DB{DB: db, driver: cfg.Driver}, nil
}

func isMemoryPath(p string) bool {
	return p == "" || p == ":memory:" || strings.Contains(p, "mode=memory")
}

// sqliteDSN ensures the directory exists and enables foreign keys and a busy timeout
func sqliteDSN(dbPath string) (string, error) {
	if isMemoryPath(dbPath) {
		return ":memory:?_foreign_keys=on", nil
	}
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return dbPath + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", nil
}

// Driver returns the configured driver name
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck verifies the database connection is working
func (db *DB) HealthCheck() error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// AutoMigrate runs GORM auto migration for the provided models
func (db *DB) AutoMigrate(models ...any) error {
	if err := db.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}

// Migrate creates or updates every pipeline table
func (db *DB) Migrate() error {
	return db.AutoMigrate(models.All()...)
}

// Tables lists the table behind every pipeline model
func (db *DB) Tables() []string {
	tables := make([]string, 0, len(models.All()))
	for _, m := range models.All() {
		if name := db.tableName(m); name != "" {
			tables = append(tables, name)
		}
	}
	return tables
}

// PendingMigrations lists the tables that do not exist yet
func (db *DB) PendingMigrations() []string {
	var missing []string
	for _, m := range models.All() {
		if db.DB.Migrator().HasTable(m) {
			continue
		}
		if name := db.tableName(m); name != "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (db *DB) tableName(m any) string {
	stmt := &gorm.Statement{DB: db.DB}
	if err := stmt.Parse(m); err != nil {
		return ""
	}
	return stmt.Schema.Table
}

// IsUniqueViolation reports whether err came from a unique constraint
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "sqlstate 23505")
}
