// Package testutil provides testing utilities for database-backed tests.
//
// Repository and use case tests run against an in-memory SQLite database with
// the real schema applied:
//
//	db := testutil.SetupSQLiteDB(t)
//
// The connection is closed automatically when the test ends.
//
// Migration Path:
//
// Migrations are automatically discovered by walking up from the current
// working directory until a "migrations/{dbType}" directory is found.
package testutil

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// SetupSQLiteDB opens a private in-memory SQLite database and runs migrations.
// The pool is limited to one connection so every query sees the same database.
func SetupSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "failed to open sqlite")
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	t.Cleanup(func() {
		TeardownDB(t, db)
	})

	MigrateSQLite(t, db)

	return db
}

// TeardownDB closes the database connection.
func TeardownDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if db != nil {
		err := db.Close()
		require.NoError(t, err, "failed to close database connection")
	}
}

// CleanupSQLiteDB deletes all rows from the application tables.
func CleanupSQLiteDB(t *testing.T, db *sql.DB) {
	t.Helper()

	for _, table := range []string{"audit_events", "vault_entries"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err, "failed to clean "+table)
	}
}

// MigrateSQLite applies all pending SQLite migrations to db. Use it for
// databases the test did not open through SetupSQLiteDB.
func MigrateSQLite(t *testing.T, db *sql.DB) {
	t.Helper()

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	require.NoError(t, err, "failed to create sqlite driver")

	migrationsPath, err := getMigrationsPath("sqlite")
	require.NoError(t, err, "failed to find sqlite migrations path")

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	require.NoError(t, err, "failed to create migrate instance for sqlite")

	// The migrate instance is not closed: closing it would close db, which the
	// caller owns.

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err, fmt.Sprintf("failed to run sqlite migrations from %s", migrationsPath))
	}
}

// getMigrationsPath resolves the absolute path to migration files for the specified database type.
// Walks up the directory tree from current working directory to find the migrations folder.
func getMigrationsPath(dbType string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for {
		migrationsPath := filepath.Join(dir, "migrations", dbType)
		if _, err := os.Stat(migrationsPath); err == nil {
			return migrationsPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("migrations directory not found for %s (started from %s)", dbType, dir)
		}
		dir = parent
	}
}
