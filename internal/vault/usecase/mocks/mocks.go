// Package mocks provides mock implementations of the vault use case interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

// MockVaultEntryRepository is a mock implementation of VaultEntryRepository.
type MockVaultEntryRepository struct {
	mock.Mock
}

// Create mocks the Create method of VaultEntryRepository.
func (m *MockVaultEntryRepository) Create(ctx context.Context, entry *vaultDomain.VaultEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// FindByID mocks the FindByID method of VaultEntryRepository.
func (m *MockVaultEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.VaultEntry), args.Error(1)
}

// Update mocks the Update method of VaultEntryRepository.
func (m *MockVaultEntryRepository) Update(ctx context.Context, entry *vaultDomain.VaultEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// UpdateEncryption mocks the UpdateEncryption method of VaultEntryRepository.
func (m *MockVaultEntryRepository) UpdateEncryption(
	ctx context.Context,
	entry *vaultDomain.VaultEntry,
	from cryptoDomain.EncryptionVersion,
) error {
	args := m.Called(ctx, entry, from)
	return args.Error(0)
}

// Delete mocks the Delete method of VaultEntryRepository.
func (m *MockVaultEntryRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

// FindLegacyEntries mocks the FindLegacyEntries method of VaultEntryRepository.
func (m *MockVaultEntryRepository) FindLegacyEntries(
	ctx context.Context,
	limit int,
) ([]*vaultDomain.VaultEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vaultDomain.VaultEntry), args.Error(1)
}

// FindLegacyEntriesAfter mocks the FindLegacyEntriesAfter method of VaultEntryRepository.
func (m *MockVaultEntryRepository) FindLegacyEntriesAfter(
	ctx context.Context,
	cursor vaultDomain.LegacyCursor,
	limit int,
) ([]*vaultDomain.VaultEntry, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vaultDomain.VaultEntry), args.Error(1)
}

// CountByEncryptionVersion mocks the CountByEncryptionVersion method of VaultEntryRepository.
func (m *MockVaultEntryRepository) CountByEncryptionVersion(
	ctx context.Context,
) (vaultDomain.VersionCounts, error) {
	args := m.Called(ctx)
	return args.Get(0).(vaultDomain.VersionCounts), args.Error(1)
}

// MockEntryUseCase is a mock implementation of EntryUseCase.
type MockEntryUseCase struct {
	mock.Mock
}

// Create mocks the Create method of EntryUseCase.
func (m *MockEntryUseCase) Create(
	ctx context.Context,
	input *vaultDomain.CreateEntryInput,
) (*vaultDomain.DecryptedEntry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.DecryptedEntry), args.Error(1)
}

// Get mocks the Get method of EntryUseCase.
func (m *MockEntryUseCase) Get(
	ctx context.Context,
	id uuid.UUID,
	ownerID string,
) (*vaultDomain.DecryptedEntry, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.DecryptedEntry), args.Error(1)
}

// Update mocks the Update method of EntryUseCase.
func (m *MockEntryUseCase) Update(
	ctx context.Context,
	input *vaultDomain.UpdateEntryInput,
) (*vaultDomain.DecryptedEntry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.DecryptedEntry), args.Error(1)
}

// Delete mocks the Delete method of EntryUseCase.
func (m *MockEntryUseCase) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

// MockMigrationUseCase is a mock implementation of MigrationUseCase.
type MockMigrationUseCase struct {
	mock.Mock
}

// GetMigrationStats mocks the GetMigrationStats method of MigrationUseCase.
func (m *MockMigrationUseCase) GetMigrationStats(ctx context.Context) (*vaultDomain.MigrationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.MigrationStats), args.Error(1)
}

// MigrateEntry mocks the MigrateEntry method of MigrationUseCase.
func (m *MockMigrationUseCase) MigrateEntry(ctx context.Context, id uuid.UUID, ownerID string) bool {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0)
}

// MigrateBatch mocks the MigrateBatch method of MigrationUseCase.
func (m *MockMigrationUseCase) MigrateBatch(ctx context.Context, batchSize int) (*vaultDomain.BatchResult, error) {
	args := m.Called(ctx, batchSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.BatchResult), args.Error(1)
}

// ScheduleBackgroundMigration mocks the ScheduleBackgroundMigration method of MigrationUseCase.
func (m *MockMigrationUseCase) ScheduleBackgroundMigration(
	ctx context.Context,
	cfg vaultDomain.MigrationConfig,
) (*vaultDomain.MigrationStats, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.MigrationStats), args.Error(1)
}

// VerifyV2Entry mocks the VerifyV2Entry method of MigrationUseCase.
func (m *MockMigrationUseCase) VerifyV2Entry(ctx context.Context, id uuid.UUID) bool {
	args := m.Called(ctx, id)
	return args.Bool(0)
}
