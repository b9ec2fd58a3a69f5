package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/go-while/go-yelpcamp/internal/models"
)

// ErrUserExists is returned when a username or email is already taken
var ErrUserExists = errors.New("user already exists")

const userColumns = `id, username, email, password_hash, login_attempts, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u  models.User
		id sql.NullString
	)
	if err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &u.LoginAttempts, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if u.ID, err = scanID(id); err != nil {
		return nil, err
	}
	return &u, nil
}

const query_InsertUser = `INSERT INTO users (id, username, email, password_hash, login_attempts, created_at, updated_at)
	VALUES (?, ?, ?, ?, 0, ?, ?)`

// InsertUser stores a new user and assigns its id and timestamps
func (db *Database) InsertUser(u *models.User) error {
	if u.ID.IsZero() {
		u.ID = models.NewID()
	}
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	u.LoginAttempts = 0

	_, err := db.retryableExec(query_InsertUser, u.ID.Hex(), u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

const query_GetUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (db *Database) GetUserByUsername(username string) (*models.User, error) {
	u, err := scanUser(db.retryableQueryRow(query_GetUserByUsername, username))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

const query_GetUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (db *Database) GetUserByEmail(email string) (*models.User, error) {
	u, err := scanUser(db.retryableQueryRow(query_GetUserByEmail, email))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

const query_GetUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (db *Database) GetUserByID(id primitive.ObjectID) (*models.User, error) {
	u, err := scanUser(db.retryableQueryRow(query_GetUserByID, id.Hex()))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

const query_GetAllUsers = `SELECT ` + userColumns + ` FROM users ORDER BY username`

// GetAllUsers returns every account ordered by username
func (db *Database) GetAllUsers() ([]*models.User, error) {
	rows, err := db.retryableQuery(query_GetAllUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUserPassword updates a user's password hash
const query_UpdateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

func (db *Database) UpdateUserPassword(userID primitive.ObjectID, passwordHash string) error {
	result, err := db.retryableExec(query_UpdateUserPassword, passwordHash, now(), userID.Hex())
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes the account and its sessions; campgrounds and reviews
// keep existing without an author
const query_DeleteUser = `DELETE FROM users WHERE id = ?`

func (db *Database) DeleteUser(userID primitive.ObjectID) error {
	result, err := db.retryableExec(query_DeleteUser, userID.Hex())
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// getUsersByIDs loads the distinct users behind ids, keyed by id
func (db *Database) getUsersByIDs(ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	users := make(map[primitive.ObjectID]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	seen := make(map[primitive.ObjectID]bool, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		args = append(args, id.Hex())
	}
	if len(args) == 0 {
		return users, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (?` + strings.Repeat(",?", len(args)-1) + `)`
	rows, err := db.retryableQuery(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}
