package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/go-while/go-yelpcamp/internal/models"
)

// Session security constants
const (
	SessionIDLength  = 64               // 64 character session ID
	MaxLoginAttempts = 5                // Max failed login attempts
	LoginLockoutTime = 15 * time.Minute // Lockout time after max attempts
)

// GenerateSecureSessionID creates a cryptographically secure session ID
func GenerateSecureSessionID() (string, error) {
	bytes := make([]byte, SessionIDLength/2) // hex encoding doubles the length
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure session ID: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// CreateSession starts a new session. A zero userID creates an anonymous session.
func (db *Database) CreateSession(userID primitive.ObjectID, remoteIP string) (*models.Session, error) {
	sessionID, err := GenerateSecureSessionID()
	if err != nil {
		return nil, err
	}

	created := now()
	session := &models.Session{
		ID:        sessionID,
		UserID:    userID,
		RemoteIP:  remoteIP,
		CreatedAt: created,
		ExpiresAt: created.Add(db.dbconfig.SessionTTL),
	}

	_, err = db.retryableExec(`INSERT INTO sessions (id, user_id, remote_ip, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		session.ID, models.NullableHex(userID), remoteIP, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession returns a live session and pushes its expiry forward (sliding timeout)
func (db *Database) GetSession(sessionID string) (*models.Session, error) {
	if len(sessionID) != SessionIDLength {
		return nil, ErrNotFound
	}

	var (
		session models.Session
		userID  sql.NullString
	)
	err := db.retryableQueryRowScan(`SELECT id, user_id, remote_ip, created_at, expires_at
		FROM sessions WHERE id = ? AND expires_at > ?`,
		[]interface{}{sessionID, now()},
		&session.ID, &userID, &session.RemoteIP, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		return nil, notFound(err)
	}
	if session.UserID, err = scanID(userID); err != nil {
		return nil, err
	}

	newExpiresAt := now().Add(db.dbconfig.SessionTTL)
	if _, err := db.retryableExec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, newExpiresAt, sessionID); err != nil {
		// Log error but don't fail validation
		db.log.Warn("Failed to extend session expiration", zap.Error(err))
	} else {
		session.ExpiresAt = newExpiresAt
	}
	return &session, nil
}

// DeleteSession removes a session; deleting an unknown id is not an error
func (db *Database) DeleteSession(sessionID string) error {
	_, err := db.retryableExec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

// DeleteUserSessions signs a user out everywhere
func (db *Database) DeleteUserSessions(userID primitive.ObjectID) (int64, error) {
	result, err := db.retryableExec(`DELETE FROM sessions WHERE user_id = ?`, userID.Hex())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CleanupExpiredSessions removes expired sessions from the database
func (db *Database) CleanupExpiredSessions() (int64, error) {
	result, err := db.retryableExec(`DELETE FROM sessions WHERE expires_at <= ?`, now())
	if err != nil {
		return 0, err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		db.log.Info("Cleaned up expired sessions", zap.Int64("count", rowsAffected))
	}
	return rowsAffected, nil
}

// IncrementLoginAttempts increases the failed login counter
func (db *Database) IncrementLoginAttempts(username string) error {
	_, err := db.retryableExec(`UPDATE users SET
		login_attempts = login_attempts + 1,
		last_failed_at = ?
		WHERE username = ?`, now(), username)
	return err
}

// ResetLoginAttempts clears the failed login counter
func (db *Database) ResetLoginAttempts(userID primitive.ObjectID) error {
	_, err := db.retryableExec(`UPDATE users SET login_attempts = 0, last_failed_at = NULL WHERE id = ?`, userID.Hex())
	return err
}

// IsUserLockedOut checks if user is temporarily locked out due to failed attempts.
// An expired lockout resets the counter.
func (db *Database) IsUserLockedOut(username string) (bool, error) {
	var (
		attempts     int
		lastFailedAt sql.NullTime
	)
	err := db.retryableQueryRowScan(`SELECT login_attempts, last_failed_at FROM users WHERE username = ?`,
		[]interface{}{username}, &attempts, &lastFailedAt)
	if err != nil {
		return false, notFound(err)
	}

	if attempts < MaxLoginAttempts {
		return false, nil
	}
	if lastFailedAt.Valid && time.Now().Before(lastFailedAt.Time.Add(LoginLockoutTime)) {
		return true, nil
	}

	if _, err := db.retryableExec(`UPDATE users SET login_attempts = 0, last_failed_at = NULL WHERE username = ?`, username); err != nil {
		return false, err
	}
	return false, nil
}
