package app

import (
	"context"
	"fmt"

	"github.com/allisson/datavault/internal/config"
	"github.com/allisson/datavault/internal/metrics"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
	vaultRepository "github.com/allisson/datavault/internal/vault/repository"
	vaultUsecase "github.com/allisson/datavault/internal/vault/usecase"
)

type vaultDeps struct {
	vaultRepository  lazy[vaultUsecase.VaultEntryRepository]
	entryUseCase     lazy[vaultUsecase.EntryUseCase]
	migrationUseCase lazy[vaultUsecase.MigrationUseCase]
}

// VaultEntryRepository returns the entry repository for the configured driver.
func (c *Container) VaultEntryRepository() (vaultUsecase.VaultEntryRepository, error) {
	return c.vaultRepository.get(func() (vaultUsecase.VaultEntryRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for vault repository: %w", err)
		}

		switch c.config.DBDriver {
		case config.DriverPostgres:
			return vaultRepository.NewPostgreSQLVaultEntryRepository(db), nil
		case config.DriverMySQL:
			return vaultRepository.NewMySQLVaultEntryRepository(db), nil
		case config.DriverSQLite:
			return vaultRepository.NewSQLiteVaultEntryRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
}

// EntryUseCase returns the audited entry use case wrapped with metrics.
func (c *Container) EntryUseCase() (vaultUsecase.EntryUseCase, error) {
	return c.entryUseCase.get(func() (vaultUsecase.EntryUseCase, error) {
		repo, err := c.VaultEntryRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get vault repository for entry use case: %w", err)
		}

		keyManager, err := c.KeyManager()
		if err != nil {
			return nil, err
		}

		auditUseCase, err := c.AuditUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get audit use case for entry use case: %w", err)
		}

		bm, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := vaultUsecase.NewEntryUseCase(repo, keyManager, auditUseCase, c.Logger())
		return vaultUsecase.NewEntryUseCaseWithMetrics(useCase, bm), nil
	})
}

// MigrationUseCase returns the v1 to v2 migration use case wrapped with metrics.
func (c *Container) MigrationUseCase() (vaultUsecase.MigrationUseCase, error) {
	return c.migrationUseCase.get(func() (vaultUsecase.MigrationUseCase, error) {
		repo, err := c.VaultEntryRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get vault repository for migration use case: %w", err)
		}

		keyManager, err := c.KeyManager()
		if err != nil {
			return nil, err
		}

		auditUseCase, err := c.AuditUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get audit use case for migration use case: %w", err)
		}

		bm, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := vaultUsecase.NewMigrationUseCase(
			repo,
			keyManager,
			auditUseCase,
			vaultUsecase.NewEntryRateLimiter(c.config.MigrationEntriesPerSecond),
			c.Logger(),
		)
		return vaultUsecase.NewMigrationUseCaseWithMetrics(useCase, bm), nil
	})
}

// MigrationConfig returns the background migration settings.
func (c *Container) MigrationConfig() vaultDomain.MigrationConfig {
	return vaultDomain.MigrationConfig{
		BatchSize:           c.config.MigrationBatchSize,
		DelayBetweenBatches: c.config.MigrationDelayBetweenBatches,
		MaxBatches:          c.config.MigrationMaxBatches,
	}
}

// registerEncryptionGauge exposes per-version entry counts on the provider.
func (c *Container) registerEncryptionGauge(provider *metrics.Provider) error {
	repo, err := c.VaultEntryRepository()
	if err != nil {
		return fmt.Errorf("failed to get vault repository for encryption gauge: %w", err)
	}

	registration, err := metrics.RegisterEncryptionVersionGauge(
		provider.MeterProvider(),
		provider.Namespace(),
		func(ctx context.Context) (int64, int64, error) {
			counts, err := repo.CountByEncryptionVersion(ctx)
			if err != nil {
				return 0, 0, err
			}
			return counts.V1, counts.V2, nil
		},
	)
	if err != nil {
		return err
	}
	c.onShutdown("encryption gauge", func(context.Context) error { return registration.Unregister() })
	return nil
}
