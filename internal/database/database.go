// Package database provides database abstraction and management for go-yelpcamp
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/models"
)

// ErrNotFound is returned when a lookup by id or name matches no row
var ErrNotFound = errors.New("not found")

// Database represents the main database connection
type Database struct {
	mainDB   *sql.DB
	dbconfig *DBConfig
	log      *zap.Logger
}

// Shutdown closes the database connection
func (db *Database) Shutdown() error {
	if db == nil || db.mainDB == nil {
		return nil
	}
	if db.dbconfig.WALMode {
		if _, err := db.mainDB.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			db.log.Warn("WAL checkpoint failed", zap.Error(err))
		}
	}
	if err := db.mainDB.Close(); err != nil {
		return fmt.Errorf("failed to close main database: %w", err)
	}
	db.log.Info("Database closed")
	return nil
}

// notFound maps sql.ErrNoRows to ErrNotFound
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// scanID converts a hex TEXT column to an id; NULL and '' become the zero id
func scanID(s sql.NullString) (primitive.ObjectID, error) {
	if !s.Valid || s.String == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(s.String)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("corrupt id %q: %w", s.String, err)
	}
	return id, nil
}

// scanDecimal parses a TEXT decimal column
func scanDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal %q: %w", s, err)
	}
	return d, nil
}

// now returns the timestamp stored on inserts and updates
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// parseLookupID turns a URL id into an id, mapping malformed input to ErrNotFound
func parseLookupID(hex string) (primitive.ObjectID, error) {
	id, err := models.ParseID(hex)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return id, nil
}
