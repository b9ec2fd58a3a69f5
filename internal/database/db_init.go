package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/config"
)

// MainDBFile is the database file name below DataDir
const MainDBFile = "yelpcamp.sq3"

// DBConfig represents database configuration
type DBConfig struct {
	// Directory to store database files
	DataDir string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Performance settings
	WALMode   bool   // Write-Ahead Logging
	SyncMode  string // OFF, NORMAL, FULL
	CacheSize int    // KB
	TempStore string // MEMORY, FILE

	// Session lifetime, extended on every validated request
	SessionTTL time.Duration
}

// DefaultDBConfig returns default database configuration
func DefaultDBConfig() *DBConfig {
	return &DBConfig{
		DataDir:         "./data",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 0, // Unlimited for SQLite
		WALMode:         true,
		SyncMode:        "NORMAL",
		CacheSize:       -16384, // -16384 == 1024 KB * 16384 = 16MB cache
		TempStore:       "MEMORY",
		SessionTTL:      config.DefaultSessionTTL,
	}
}

// DBConfigFrom maps the file/env configuration onto database settings
func DBConfigFrom(cfg *config.MainConfig) *DBConfig {
	dbconfig := DefaultDBConfig()
	dbconfig.DataDir = cfg.Database.DataDir
	if cfg.Database.MaxOpenConns > 0 {
		dbconfig.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbconfig.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	dbconfig.WALMode = cfg.Database.WALMode
	dbconfig.SessionTTL = cfg.Session.TTL
	return dbconfig
}

// OpenDatabase opens the main database and applies all pending migrations
func OpenDatabase(dbconfig *DBConfig, logger *zap.Logger) (*Database, error) {
	if dbconfig == nil {
		dbconfig = DefaultDBConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db := &Database{
		dbconfig: dbconfig,
		log:      logger.Named("database"),
	}

	if err := db.initMainDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize main database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.mainDB.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	db.log.Info("Database initialized",
		zap.String("path", db.Path()),
		zap.Bool("wal", dbconfig.WALMode),
		zap.Duration("session_ttl", dbconfig.SessionTTL))
	return db, nil
}

// Path returns the main database file path
func (db *Database) Path() string {
	return filepath.Join(db.dbconfig.DataDir, MainDBFile)
}

// initMainDB initializes the main database connection
func (db *Database) initMainDB() error {
	dbPath := db.Path()
	db.log.Debug("Initializing main database", zap.String("path", dbPath))

	if err := os.MkdirAll(db.dbconfig.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// foreign_keys and busy_timeout are per connection, so they go into the DSN
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=30000", dbPath)
	mainDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open main database: %w", err)
	}

	mainDB.SetMaxOpenConns(db.dbconfig.MaxOpenConns)
	mainDB.SetMaxIdleConns(db.dbconfig.MaxIdleConns)
	mainDB.SetConnMaxLifetime(db.dbconfig.ConnMaxLifetime)

	if err := mainDB.Ping(); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to ping main database: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to ping main database: %w", err)
	}

	if err := db.applySQLitePragmas(mainDB); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to apply SQLite pragmas: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to apply SQLite pragmas: %w", err)
	}

	db.mainDB = mainDB
	return nil
}

// applySQLitePragmas applies performance and configuration pragmas to SQLite connection
func (db *Database) applySQLitePragmas(conn *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d", db.dbconfig.CacheSize),
		fmt.Sprintf("PRAGMA synchronous = %s", db.dbconfig.SyncMode),
		fmt.Sprintf("PRAGMA temp_store = %s", db.dbconfig.TempStore),
	}

	if db.dbconfig.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
		pragmas = append(pragmas, "PRAGMA wal_autocheckpoint = 1000")
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma '%s': %w", pragma, err)
		}
	}

	return nil
}
