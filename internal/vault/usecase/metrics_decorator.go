package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/datavault/internal/metrics"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

const (
	vaultMetricsDomain     = "vault"
	migrationMetricsDomain = "migration"
)

func boolStatus(ok bool) string {
	if ok {
		return metrics.StatusSuccess
	}
	return metrics.StatusError
}

// entryUseCaseWithMetrics decorates EntryUseCase with metrics instrumentation.
type entryUseCaseWithMetrics struct {
	next    EntryUseCase
	metrics metrics.BusinessMetrics
}

// NewEntryUseCaseWithMetrics wraps an EntryUseCase with metrics recording.
func NewEntryUseCaseWithMetrics(useCase EntryUseCase, m metrics.BusinessMetrics) EntryUseCase {
	return &entryUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (e *entryUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.StatusOf(err)
	e.metrics.RecordOperation(ctx, vaultMetricsDomain, operation, status)
	e.metrics.RecordDuration(ctx, vaultMetricsDomain, operation, time.Since(start), status)
}

// Create records metrics for entry creation.
func (e *entryUseCaseWithMetrics) Create(
	ctx context.Context,
	input *vaultDomain.CreateEntryInput,
) (*vaultDomain.DecryptedEntry, error) {
	start := time.Now()
	entry, err := e.next.Create(ctx, input)
	e.record(ctx, "entry_create", start, err)
	return entry, err
}

// Get records metrics for entry reads.
func (e *entryUseCaseWithMetrics) Get(
	ctx context.Context,
	id uuid.UUID,
	ownerID string,
) (*vaultDomain.DecryptedEntry, error) {
	start := time.Now()
	entry, err := e.next.Get(ctx, id, ownerID)
	e.record(ctx, "entry_get", start, err)
	return entry, err
}

// Update records metrics for entry updates.
func (e *entryUseCaseWithMetrics) Update(
	ctx context.Context,
	input *vaultDomain.UpdateEntryInput,
) (*vaultDomain.DecryptedEntry, error) {
	start := time.Now()
	entry, err := e.next.Update(ctx, input)
	e.record(ctx, "entry_update", start, err)
	return entry, err
}

// Delete records metrics for entry deletion.
func (e *entryUseCaseWithMetrics) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	start := time.Now()
	err := e.next.Delete(ctx, id, ownerID)
	e.record(ctx, "entry_delete", start, err)
	return err
}

// migrationUseCaseWithMetrics decorates MigrationUseCase with metrics instrumentation.
type migrationUseCaseWithMetrics struct {
	next    MigrationUseCase
	metrics metrics.BusinessMetrics
}

// NewMigrationUseCaseWithMetrics wraps a MigrationUseCase with metrics recording.
func NewMigrationUseCaseWithMetrics(useCase MigrationUseCase, m metrics.BusinessMetrics) MigrationUseCase {
	return &migrationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (m *migrationUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, status string) {
	m.metrics.RecordOperation(ctx, migrationMetricsDomain, operation, status)
	m.metrics.RecordDuration(ctx, migrationMetricsDomain, operation, time.Since(start), status)
}

// GetMigrationStats records metrics for stats queries.
func (m *migrationUseCaseWithMetrics) GetMigrationStats(ctx context.Context) (*vaultDomain.MigrationStats, error) {
	start := time.Now()
	stats, err := m.next.GetMigrationStats(ctx)
	m.record(ctx, "migration_stats", start, metrics.StatusOf(err))
	return stats, err
}

// MigrateEntry records metrics for single-entry migrations.
func (m *migrationUseCaseWithMetrics) MigrateEntry(ctx context.Context, id uuid.UUID, ownerID string) bool {
	start := time.Now()
	ok := m.next.MigrateEntry(ctx, id, ownerID)
	m.record(ctx, "migration_entry", start, boolStatus(ok))
	return ok
}

// MigrateBatch records metrics for batches. A batch with failed entries
// counts as an error.
func (m *migrationUseCaseWithMetrics) MigrateBatch(
	ctx context.Context,
	batchSize int,
) (*vaultDomain.BatchResult, error) {
	start := time.Now()
	result, err := m.next.MigrateBatch(ctx, batchSize)

	status := metrics.StatusOf(err)
	if err == nil && !result.Success {
		status = metrics.StatusError
	}
	m.record(ctx, "migration_batch", start, status)

	return result, err
}

// ScheduleBackgroundMigration records metrics for a full background sweep.
func (m *migrationUseCaseWithMetrics) ScheduleBackgroundMigration(
	ctx context.Context,
	cfg vaultDomain.MigrationConfig,
) (*vaultDomain.MigrationStats, error) {
	start := time.Now()
	stats, err := m.next.ScheduleBackgroundMigration(ctx, cfg)
	m.record(context.WithoutCancel(ctx), "migration_background", start, metrics.StatusOf(err))
	return stats, err
}

// VerifyV2Entry records metrics for v2 verification.
func (m *migrationUseCaseWithMetrics) VerifyV2Entry(ctx context.Context, id uuid.UUID) bool {
	start := time.Now()
	ok := m.next.VerifyV2Entry(ctx, id)
	m.record(ctx, "migration_verify", start, boolStatus(ok))
	return ok
}
