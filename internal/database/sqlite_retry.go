package database

import (
	"database/sql"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxRetries = 100
	baseDelay  = 10 * time.Millisecond
	maxDelay   = 25 * time.Millisecond
)

// isRetryableError checks if the error is a retryable SQLite error
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "busy")
}

// backoff sleeps before the next attempt: linear growth capped at maxDelay plus up to 50% jitter
func backoff(attempt int) {
	delay := time.Duration(attempt+1) * baseDelay
	if delay > maxDelay {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	time.Sleep(delay + jitter)
}

// retryableExec executes a SQL statement with retry logic for lock conflicts
func (db *Database) retryableExec(query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err = db.mainDB.Exec(query, args...)
		if !isRetryableError(err) {
			return result, err
		}
		if attempt < maxRetries-1 {
			backoff(attempt)
			db.log.Warn("SQLite retry for exec",
				zap.Int("attempt", attempt+1),
				zap.String("query", truncateString(query, 50)),
				zap.Error(err))
		}
	}

	return result, err
}

// retryableQueryRowScan executes a QueryRow and Scan with retry logic
func (db *Database) retryableQueryRowScan(query string, args []interface{}, dest ...interface{}) error {
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err = db.mainDB.QueryRow(query, args...).Scan(dest...)
		if !isRetryableError(err) {
			return err
		}
		if attempt < maxRetries-1 {
			backoff(attempt)
			db.log.Warn("SQLite retry for query row",
				zap.Int("attempt", attempt+1),
				zap.String("query", truncateString(query, 50)),
				zap.Error(err))
		}
	}

	return err
}

// retryRow is a rowScanner whose Scan runs the query through
// retryableQueryRowScan, so scanX(row) helpers get lock retries too
type retryRow struct {
	db    *Database
	query string
	args  []interface{}
}

func (r *retryRow) Scan(dest ...interface{}) error {
	return r.db.retryableQueryRowScan(r.query, r.args, dest...)
}

// retryableQueryRow is QueryRow with retry logic; the query runs on Scan
func (db *Database) retryableQueryRow(query string, args ...interface{}) rowScanner {
	return &retryRow{db: db, query: query, args: args}
}

// retryableQuery executes a query that returns multiple rows with retry logic
func (db *Database) retryableQuery(query string, args ...interface{}) (*sql.Rows, error) {
	var rows *sql.Rows
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		rows, err = db.mainDB.Query(query, args...)
		if !isRetryableError(err) {
			return rows, err
		}
		if attempt < maxRetries-1 {
			backoff(attempt)
			db.log.Warn("SQLite retry for query",
				zap.Int("attempt", attempt+1),
				zap.String("query", truncateString(query, 50)),
				zap.Error(err))
		}
	}

	return rows, err
}

// retryableTransactionExec runs txFunc in a transaction, retrying the whole
// transaction when SQLite reports a lock conflict
func (db *Database) retryableTransactionExec(txFunc func(*sql.Tx) error) error {
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		var tx *sql.Tx
		tx, err = db.mainDB.Begin()
		if err == nil {
			err = txFunc(tx)
			if err != nil {
				_ = tx.Rollback()
			} else {
				err = tx.Commit()
			}
		}

		if !isRetryableError(err) {
			return err
		}
		if attempt < maxRetries-1 {
			backoff(attempt)
			db.log.Warn("SQLite retry for transaction", zap.Int("attempt", attempt+1), zap.Error(err))
		}
	}

	return err
}

// truncateString truncates a string to the specified length
func truncateString(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length]
}
