package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/datavault/internal/config"
)

// migrationTarget maps a DB_DRIVER and its database/sql DSN to the migrations
// directory and the golang-migrate database URL.
func migrationTarget(driver, connectionString string) (source, databaseURL string, err error) {
	switch driver {
	case config.DriverPostgres:
		return "file://migrations/postgresql", connectionString, nil
	case config.DriverMySQL:
		return "file://migrations/mysql", "mysql://" + strings.TrimPrefix(connectionString, "mysql://"), nil
	case config.DriverSQLite:
		path := strings.TrimPrefix(strings.TrimPrefix(connectionString, "sqlite://"), "file:")
		return "file://migrations/sqlite", "sqlite://" + path, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// RunMigrations applies all pending migrations for driver. Migrations are read
// from ./migrations/<dialect> relative to the working directory.
func RunMigrations(logger *slog.Logger, driver, connectionString string) error {
	logger.Info("running database migrations", slog.String("driver", driver))

	source, databaseURL, err := migrationTarget(driver, connectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}
