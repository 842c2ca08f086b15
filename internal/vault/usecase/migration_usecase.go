package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	auditUseCase "github.com/allisson/datavault/internal/audit/usecase"
	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	cryptoService "github.com/allisson/datavault/internal/crypto/service"
	apperrors "github.com/allisson/datavault/internal/errors"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

const actionEncryptionMigrated = "encryption_migrated"

// migrationUseCase converts v1 entries to v2. The persisted update and the
// audit event are written in one transaction under the owner's chain lock,
// and the update only applies while the stored version is still v1, so two
// workers racing on the same entry produce one migration and one event.
type migrationUseCase struct {
	repo       VaultEntryRepository
	keyManager cryptoService.KeyManager
	auditUC    auditUseCase.AuditUseCase
	limiter    *rate.Limiter
	logger     *slog.Logger
	now        func() time.Time

	failed atomic.Int64
}

// NewMigrationUseCase creates a new MigrationUseCase. A nil limiter disables
// throttling.
func NewMigrationUseCase(
	repo VaultEntryRepository,
	keyManager cryptoService.KeyManager,
	auditUC auditUseCase.AuditUseCase,
	limiter *rate.Limiter,
	logger *slog.Logger,
) MigrationUseCase {
	return &migrationUseCase{
		repo:       repo,
		keyManager: keyManager,
		auditUC:    auditUC,
		limiter:    limiter,
		logger:     logger,
		now:        time.Now,
	}
}

// NewEntryRateLimiter returns a limiter for entriesPerSecond, or nil when the
// rate is zero or negative.
func NewEntryRateLimiter(entriesPerSecond int) *rate.Limiter {
	if entriesPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(entriesPerSecond), entriesPerSecond)
}

// GetMigrationStats returns the current version counts. Failed counts the
// entries this instance failed to migrate since it was created.
func (m *migrationUseCase) GetMigrationStats(ctx context.Context) (*vaultDomain.MigrationStats, error) {
	counts, err := m.repo.CountByEncryptionVersion(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count vault entries")
	}

	stats := vaultDomain.NewMigrationStats(counts, m.failed.Load())
	return &stats, nil
}

// MigrateEntry migrates one entry and reports whether it ends up at v2.
func (m *migrationUseCase) MigrateEntry(ctx context.Context, id uuid.UUID, ownerID string) bool {
	if err := m.migrateEntry(ctx, id, ownerID); err != nil {
		m.recordFailure(id, err)
		return false
	}
	return true
}

func (m *migrationUseCase) recordFailure(id uuid.UUID, err error) {
	m.failed.Add(1)
	m.logger.Error("failed to migrate vault entry",
		slog.String("entry_id", id.String()),
		slog.Any("error", err),
	)
}

func (m *migrationUseCase) migrateEntry(ctx context.Context, id uuid.UUID, ownerID string) error {
	entry, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.OwnerID != ownerID {
		return vaultDomain.ErrVaultEntryNotFound
	}
	if entry.EncryptionVersion == cryptoDomain.EncryptionV2 {
		return nil
	}

	payload, err := entry.Payload()
	if err != nil {
		return err
	}
	legacy, ok := payload.(*cryptoDomain.EncryptedPayload)
	if !ok {
		return vaultDomain.ErrMalformedRecord
	}

	envelope, err := m.keyManager.MigrateToEnvelopeEncryption(legacy)
	if err != nil {
		return apperrors.Wrap(err, "failed to re-encrypt entry")
	}

	migrated := *entry
	if err := migrated.SetPayload(envelope); err != nil {
		return err
	}
	migrated.UpdatedAt = m.now().UTC()

	_, err = m.auditUC.RecordWith(ctx, &auditDomain.RecordInput{
		UserID:    ownerID,
		EventType: auditDomain.EventDataUpdated,
		Action:    actionEncryptionMigrated,
		ActorID:   auditDomain.SystemActorID,
		ActorType: auditDomain.ActorSystem,
		Success:   true,
		Metadata: map[string]any{
			"entry_id":     id.String(),
			"from_version": string(cryptoDomain.EncryptionV1),
			"to_version":   string(cryptoDomain.EncryptionV2),
		},
	}, func(ctx context.Context) error {
		return m.repo.UpdateEncryption(ctx, &migrated, cryptoDomain.EncryptionV1)
	})
	return err
}

// MigrateBatch migrates up to batchSize of the oldest v1 entries. Entries fail
// independently; their errors are collected in the result.
func (m *migrationUseCase) MigrateBatch(ctx context.Context, batchSize int) (*vaultDomain.BatchResult, error) {
	entries, err := m.repo.FindLegacyEntries(ctx, batchSize)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load legacy entries")
	}
	return m.migrateEntries(ctx, entries)
}

// nextLegacyEntries loads the batch after cursor, or the oldest batch when
// cursor is nil.
func (m *migrationUseCase) nextLegacyEntries(
	ctx context.Context,
	cursor *vaultDomain.LegacyCursor,
	batchSize int,
) ([]*vaultDomain.VaultEntry, error) {
	var entries []*vaultDomain.VaultEntry
	var err error
	if cursor == nil {
		entries, err = m.repo.FindLegacyEntries(ctx, batchSize)
	} else {
		entries, err = m.repo.FindLegacyEntriesAfter(ctx, *cursor, batchSize)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load legacy entries")
	}
	return entries, nil
}

func (m *migrationUseCase) migrateEntries(
	ctx context.Context,
	entries []*vaultDomain.VaultEntry,
) (*vaultDomain.BatchResult, error) {
	result := &vaultDomain.BatchResult{Errors: []vaultDomain.EntryError{}}
	for _, entry := range entries {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				result.Success = result.Failed == 0
				return result, err
			}
		}

		if err := m.migrateEntry(ctx, entry.ID, entry.OwnerID); err != nil {
			m.recordFailure(entry.ID, err)
			result.Failed++
			result.Errors = append(result.Errors, vaultDomain.EntryError{EntryID: entry.ID, Err: err})
			continue
		}
		result.Migrated++
	}

	result.Success = result.Failed == 0
	return result, nil
}

// ScheduleBackgroundMigration runs batches until the store has no v1 entries,
// cfg.MaxBatches is reached or ctx is cancelled. Each batch resumes after the
// last entry the previous batch tried, so entries that failed are not retried
// within one run; the run also ends once every remaining v1 entry has been
// tried. A batch that has started runs to completion. On cancellation the
// stats so far are returned with ctx.Err().
func (m *migrationUseCase) ScheduleBackgroundMigration(
	ctx context.Context,
	cfg vaultDomain.MigrationConfig,
) (*vaultDomain.MigrationStats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.logger.Info("background migration started",
		slog.Int("batch_size", cfg.BatchSize),
		slog.Duration("delay_between_batches", cfg.DelayBetweenBatches),
		slog.Int("max_batches", cfg.MaxBatches),
	)

	var cursor *vaultDomain.LegacyCursor
	var runErr error
	for batch := 1; batch <= cfg.MaxBatches; batch++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		stats, err := m.GetMigrationStats(ctx)
		if err != nil {
			return nil, err
		}
		if stats.V1 == 0 {
			break
		}

		batchCtx := context.WithoutCancel(ctx)
		entries, err := m.nextLegacyEntries(batchCtx, cursor, cfg.BatchSize)
		if err != nil {
			m.logger.Error("migration batch failed",
				slog.Int("batch", batch),
				slog.Any("error", err),
			)
		} else {
			if len(entries) == 0 {
				m.logger.Warn("every remaining v1 entry failed in this run, stopping",
					slog.Int("batch", batch),
					slog.Int64("v1", stats.V1),
				)
				break
			}

			last := vaultDomain.CursorOf(entries[len(entries)-1])
			cursor = &last

			result, err := m.migrateEntries(batchCtx, entries)
			if err != nil {
				m.logger.Error("migration batch failed",
					slog.Int("batch", batch),
					slog.Any("error", err),
				)
			} else {
				m.logger.Info("migration batch completed",
					slog.Int("batch", batch),
					slog.Int("migrated", result.Migrated),
					slog.Int("failed", result.Failed),
				)
			}
		}

		if batch == cfg.MaxBatches {
			break
		}

		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		case <-time.After(cfg.DelayBetweenBatches):
		}
		if runErr != nil {
			break
		}
	}

	stats, err := m.GetMigrationStats(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}

	m.logger.Info("background migration finished",
		slog.Int64("v1", stats.V1),
		slog.Int64("v2", stats.V2),
		slog.Int("percentage_complete", stats.PercentageComplete),
	)

	return stats, runErr
}

// VerifyV2Entry reports whether the stored entry is v2 with well-formed IV/tag
// composites. Lookup failures report false.
func (m *migrationUseCase) VerifyV2Entry(ctx context.Context, id uuid.UUID) bool {
	entry, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return false
	}
	return entry.IsWellFormedV2()
}
