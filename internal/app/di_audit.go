package app

import (
	"fmt"

	auditRepository "github.com/allisson/datavault/internal/audit/repository"
	auditUsecase "github.com/allisson/datavault/internal/audit/usecase"
	"github.com/allisson/datavault/internal/config"
)

type auditDeps struct {
	auditRepository lazy[auditUsecase.AuditEventRepository]
	auditUseCase    lazy[auditUsecase.AuditUseCase]
}

// AuditEventRepository returns the audit repository for the configured driver.
func (c *Container) AuditEventRepository() (auditUsecase.AuditEventRepository, error) {
	return c.auditRepository.get(func() (auditUsecase.AuditEventRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
		}

		switch c.config.DBDriver {
		case config.DriverPostgres:
			return auditRepository.NewPostgreSQLAuditEventRepository(db), nil
		case config.DriverMySQL:
			return auditRepository.NewMySQLAuditEventRepository(db), nil
		case config.DriverSQLite:
			return auditRepository.NewSQLiteAuditEventRepository(db), nil
		default:
			return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
}

// AuditUseCase returns the hash-chained audit log.
func (c *Container) AuditUseCase() (auditUsecase.AuditUseCase, error) {
	return c.auditUseCase.get(func() (auditUsecase.AuditUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for audit use case: %w", err)
		}

		repo, err := c.AuditEventRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to get audit repository for audit use case: %w", err)
		}

		return auditUsecase.NewAuditUseCase(txManager, repo, c.Logger()), nil
	})
}
