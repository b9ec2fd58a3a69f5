package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/go-while/go-yelpcamp/internal/database"
)

func setupDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("YELPCAMP_DATABASE_DATA_DIR", dir)
	t.Setenv("YELPCAMP_LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func openDataDir(t *testing.T, dir string) *database.Database {
	t.Helper()
	cfg := database.DefaultDBConfig()
	cfg.DataDir = dir
	db, err := database.OpenDatabase(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Shutdown() })
	return db
}

func TestMigrate(t *testing.T) {
	setupDataDir(t)

	out, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "applied 0001_main_schema.sql")

	out, err = execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "applied "))
}

func TestUserLifecycle(t *testing.T) {
	dir := setupDataDir(t)

	out, err := execute(t, "secret1\nsecret1\n", "user", "create", "camper", "--email", "Camper@Example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ User 'camper' created successfully")

	_, err = execute(t, "secret1\nsecret1\n", "user", "create", "camper", "--email", "other@example.com")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "secret1\nsecret1\n", "user", "create", "other", "--email", "camper@example.com")
	assert.ErrorContains(t, err, "already registered")

	_, err = execute(t, "secret1\nsecret2\n", "user", "create", "third", "--email", "third@example.com")
	assert.ErrorContains(t, err, "passwords do not match")

	_, err = execute(t, "123\n", "user", "create", "fourth", "--email", "fourth@example.com")
	assert.ErrorContains(t, err, "at least 6 characters")

	_, err = execute(t, "", "user", "create", "bad name", "--email", "x@example.com")
	assert.ErrorContains(t, err, "letters, numbers, and underscores")

	out, err = execute(t, "", "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "camper@example.com")
	assert.Contains(t, out, "Total users: 1")

	out, err = execute(t, "newpass\nnewpass\n", "user", "passwd", "camper")
	require.NoError(t, err)
	assert.Contains(t, out, "Password updated for 'camper'")

	db := openDataDir(t, dir)
	user, err := db.GetUserByUsername("camper")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	require.NoError(t, db.Shutdown())

	out, err = execute(t, "n\n", "user", "delete", "camper")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	out, err = execute(t, "", "user", "delete", "camper", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ User 'camper' deleted")

	out, err = execute(t, "", "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No users found.")

	_, err = execute(t, "", "user", "delete", "camper", "--yes")
	assert.ErrorContains(t, err, "not found")
}

func TestSeed(t *testing.T) {
	dir := setupDataDir(t)

	_, err := execute(t, "", "seed", "--author", "nobody")
	assert.ErrorContains(t, err, "user 'nobody' not found")

	_, err = execute(t, "secret1\nsecret1\n", "user", "create", "seeder", "--email", "seeder@example.com")
	require.NoError(t, err)

	out, err := execute(t, "", "seed", "--author", "seeder", "--count", "7", "--seed", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 7 campgrounds by 'seeder'")

	// a second run replaces instead of appending
	_, err = execute(t, "", "seed", "--author", "seeder", "--count", "3", "--seed", "43")
	require.NoError(t, err)

	db := openDataDir(t, dir)
	n, err := db.CountCampgrounds()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestServeRejectsBadPort(t *testing.T) {
	setupDataDir(t)
	_, err := execute(t, "", "serve", "--port", "80")
	assert.ErrorContains(t, err, "invalid port number")
}

func TestPrompterConfirm(t *testing.T) {
	var out bytes.Buffer
	for answer, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "": false, "maybe\n": false} {
		ok, err := newPrompter(strings.NewReader(answer), &out).confirm("sure?")
		require.NoError(t, err)
		assert.Equal(t, want, ok, answer)
	}
}

func TestStartMemProfileLogsRefusal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	// a profiler with memory profiling switched off refuses to start
	ok := startMemProfile(&prof.Profiler{}, zap.New(core))
	assert.False(t, ok)

	entries := logs.FilterMessage("Memory profiling not started").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "MEMProfile")
}
