package database

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{sql.ErrNoRows, false},
		{errors.New("database is locked"), true},
		{errors.New("database table is locked: campgrounds"), true},
		{errors.New("SQLITE_BUSY"), true},
		{errors.New("UNIQUE constraint failed: users.username"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryableError(tt.err), "%v", tt.err)
	}
}

func TestRetryableQueryRow(t *testing.T) {
	db := openTestDB(t)
	author := createTestUser(t, db, "alice")
	camp := createTestCampground(t, db, author, "Lone Pine")

	got, err := scanCampground(db.retryableQueryRow(query_FindCampgroundByID, camp.ID.Hex()))
	require.NoError(t, err)
	assert.Equal(t, camp.ID, got.ID)
	assert.Equal(t, "Lone Pine", got.Title)

	_, err = scanCampground(db.retryableQueryRow(query_FindCampgroundByID, "000000000000000000000000"))
	assert.ErrorIs(t, err, sql.ErrNoRows)

	u, err := scanUser(db.retryableQueryRow(query_GetUserByUsername, "alice"))
	require.NoError(t, err)
	assert.Equal(t, author.ID, u.ID)
}
