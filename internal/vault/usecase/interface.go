// Package usecase implements vault entry operations and the v1 to v2
// encryption migration.
package usecase

import (
	"context"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

// VaultEntryRepository persists vault entries. Implementations must support
// transaction-aware operations via context propagation.
type VaultEntryRepository interface {
	// Create stores a new entry.
	Create(ctx context.Context, entry *vaultDomain.VaultEntry) error

	// FindByID retrieves an entry. Returns ErrVaultEntryNotFound if it does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultEntry, error)

	// Update replaces the encryption fields and version of an entry owned by
	// entry.OwnerID. Returns ErrVaultEntryNotFound if no row matched.
	Update(ctx context.Context, entry *vaultDomain.VaultEntry) error

	// UpdateEncryption replaces the encryption fields and version only if the
	// stored version still equals from. Returns ErrAlreadyMigrated otherwise.
	UpdateEncryption(
		ctx context.Context,
		entry *vaultDomain.VaultEntry,
		from cryptoDomain.EncryptionVersion,
	) error

	// Delete removes an entry owned by ownerID. Returns ErrVaultEntryNotFound if no row matched.
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error

	// FindLegacyEntries returns up to limit v1 entries, oldest first.
	FindLegacyEntries(ctx context.Context, limit int) ([]*vaultDomain.VaultEntry, error)

	// FindLegacyEntriesAfter returns up to limit v1 entries positioned strictly
	// after cursor, oldest first.
	FindLegacyEntriesAfter(
		ctx context.Context,
		cursor vaultDomain.LegacyCursor,
		limit int,
	) ([]*vaultDomain.VaultEntry, error)

	// CountByEncryptionVersion returns the number of entries per version.
	CountByEncryptionVersion(ctx context.Context) (vaultDomain.VersionCounts, error)
}

// EntryUseCase encrypts, decrypts and audits vault entries. Every operation
// that reaches the store appends an audit event for the owner, on success
// and on failure.
type EntryUseCase interface {
	// Create encrypts input.Data with envelope encryption and stores it.
	Create(ctx context.Context, input *vaultDomain.CreateEntryInput) (*vaultDomain.DecryptedEntry, error)

	// Get loads and decrypts an entry. Decryption or integrity failures are
	// reported as ErrDataUnavailable.
	Get(ctx context.Context, id uuid.UUID, ownerID string) (*vaultDomain.DecryptedEntry, error)

	// Update re-encrypts an entry with new data. The result is always v2.
	Update(ctx context.Context, input *vaultDomain.UpdateEntryInput) (*vaultDomain.DecryptedEntry, error)

	// Delete removes an entry.
	Delete(ctx context.Context, id uuid.UUID, ownerID string) error
}

// MigrationUseCase migrates stored entries from v1 to v2 encryption.
type MigrationUseCase interface {
	// GetMigrationStats returns the current version counts and progress.
	GetMigrationStats(ctx context.Context) (*vaultDomain.MigrationStats, error)

	// MigrateEntry migrates one entry. Already-v2 entries are left untouched
	// and report true. Any failure is logged and reported as false.
	MigrateEntry(ctx context.Context, id uuid.UUID, ownerID string) bool

	// MigrateBatch migrates up to batchSize v1 entries independently. The error
	// is non-nil only if the batch could not be loaded or ctx ended mid-batch.
	MigrateBatch(ctx context.Context, batchSize int) (*vaultDomain.BatchResult, error)

	// ScheduleBackgroundMigration runs batches until no v1 entries remain or
	// cfg.MaxBatches batches ran, pausing cfg.DelayBetweenBatches in between.
	// Cancellation is observed between batches. Returns the final stats.
	ScheduleBackgroundMigration(
		ctx context.Context,
		cfg vaultDomain.MigrationConfig,
	) (*vaultDomain.MigrationStats, error)

	// VerifyV2Entry reports whether the entry is v2 with well-formed IV/tag fields.
	VerifyV2Entry(ctx context.Context, id uuid.UUID) bool
}
