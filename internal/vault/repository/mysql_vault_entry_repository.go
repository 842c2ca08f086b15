package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	"github.com/allisson/datavault/internal/database"
	apperrors "github.com/allisson/datavault/internal/errors"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

// MySQLVaultEntryRepository implements vault entry persistence for MySQL.
// Uses BINARY(16) for UUID storage. Requires parseTime=true in the DSN.
type MySQLVaultEntryRepository struct {
	db *sql.DB
}

// Create inserts a new entry.
func (m *MySQLVaultEntryRepository) Create(ctx context.Context, entry *vaultDomain.VaultEntry) error {
	querier := database.GetTx(ctx, m.db)

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal vault entry id")
	}

	query := `INSERT INTO vault_entries (` + vaultEntryColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		entry.OwnerID,
		entry.EncryptedData,
		entry.IV,
		nullableString(entry.EncryptedDEK),
		nullableString(entry.KeyIV),
		string(entry.EncryptionVersion),
		entry.CreatedAt.UTC(),
		entry.UpdatedAt.UTC(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create vault entry")
	}

	return nil
}

// FindByID returns the entry with the given ID.
func (m *MySQLVaultEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal vault entry id")
	}

	query := `SELECT ` + vaultEntryColumns + ` FROM vault_entries WHERE id = ?`

	entry, err := m.scan(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrVaultEntryNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get vault entry")
	}

	return entry, nil
}

// Update replaces the encryption fields of an entry owned by entry.OwnerID.
func (m *MySQLVaultEntryRepository) Update(ctx context.Context, entry *vaultDomain.VaultEntry) error {
	querier := database.GetTx(ctx, m.db)

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal vault entry id")
	}

	query := `UPDATE vault_entries
			  SET encrypted_data = ?, iv = ?, encrypted_dek = ?, key_iv = ?,
			      encryption_version = ?, updated_at = ?
			  WHERE id = ? AND owner_id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		entry.EncryptedData,
		entry.IV,
		nullableString(entry.EncryptedDEK),
		nullableString(entry.KeyIV),
		string(entry.EncryptionVersion),
		entry.UpdatedAt.UTC(),
		id,
		entry.OwnerID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault entry")
	}

	return expectOneRow(result, vaultDomain.ErrVaultEntryNotFound)
}

// UpdateEncryption replaces the encryption fields only while the stored
// version equals from.
func (m *MySQLVaultEntryRepository) UpdateEncryption(
	ctx context.Context,
	entry *vaultDomain.VaultEntry,
	from cryptoDomain.EncryptionVersion,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal vault entry id")
	}

	query := `UPDATE vault_entries
			  SET encrypted_data = ?, iv = ?, encrypted_dek = ?, key_iv = ?,
			      encryption_version = ?, updated_at = ?
			  WHERE id = ? AND encryption_version = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		entry.EncryptedData,
		entry.IV,
		nullableString(entry.EncryptedDEK),
		nullableString(entry.KeyIV),
		string(entry.EncryptionVersion),
		entry.UpdatedAt.UTC(),
		id,
		string(from),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault entry encryption")
	}

	return expectOneRow(result, vaultDomain.ErrAlreadyMigrated)
}

// Delete removes an entry owned by ownerID.
func (m *MySQLVaultEntryRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal vault entry id")
	}

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM vault_entries WHERE id = ? AND owner_id = ?`,
		idBytes,
		ownerID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete vault entry")
	}

	return expectOneRow(result, vaultDomain.ErrVaultEntryNotFound)
}

// FindLegacyEntries returns up to limit v1 entries, oldest first.
func (m *MySQLVaultEntryRepository) FindLegacyEntries(
	ctx context.Context,
	limit int,
) ([]*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + vaultEntryColumns + `
			  FROM vault_entries
			  WHERE encryption_version = ?
			  ORDER BY created_at ASC, id ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, string(cryptoDomain.EncryptionV1), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list legacy vault entries")
	}

	return collect(rows, m.scan)
}

// FindLegacyEntriesAfter returns up to limit v1 entries after cursor, oldest first.
func (m *MySQLVaultEntryRepository) FindLegacyEntriesAfter(
	ctx context.Context,
	cursor vaultDomain.LegacyCursor,
	limit int,
) ([]*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := cursor.ID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal cursor id")
	}

	query := `SELECT ` + vaultEntryColumns + `
			  FROM vault_entries
			  WHERE encryption_version = ? AND (created_at > ? OR (created_at = ? AND id > ?))
			  ORDER BY created_at ASC, id ASC
			  LIMIT ?`

	createdAt := cursor.CreatedAt.UTC()
	rows, err := querier.QueryContext(
		ctx,
		query,
		string(cryptoDomain.EncryptionV1),
		createdAt,
		createdAt,
		id,
		limit,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list legacy vault entries")
	}

	return collect(rows, m.scan)
}

// CountByEncryptionVersion returns the number of entries per version.
func (m *MySQLVaultEntryRepository) CountByEncryptionVersion(
	ctx context.Context,
) (vaultDomain.VersionCounts, error) {
	return countByEncryptionVersion(ctx, database.GetTx(ctx, m.db))
}

func (m *MySQLVaultEntryRepository) scan(row rowScanner) (*vaultDomain.VaultEntry, error) {
	var entry vaultDomain.VaultEntry
	var id []byte
	var version string
	var encryptedDEK, keyIV sql.NullString

	err := row.Scan(
		&id,
		&entry.OwnerID,
		&entry.EncryptedData,
		&entry.IV,
		&encryptedDEK,
		&keyIV,
		&version,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := entry.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal vault entry id")
	}

	entry.EncryptedDEK = stringPtr(encryptedDEK)
	entry.KeyIV = stringPtr(keyIV)
	entry.EncryptionVersion = cryptoDomain.EncryptionVersion(version)
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = entry.UpdatedAt.UTC()

	return &entry, nil
}

// NewMySQLVaultEntryRepository creates a new MySQL vault entry repository.
func NewMySQLVaultEntryRepository(db *sql.DB) *MySQLVaultEntryRepository {
	return &MySQLVaultEntryRepository{db: db}
}
