package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	"github.com/allisson/datavault/internal/database"
	apperrors "github.com/allisson/datavault/internal/errors"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

// SQLiteVaultEntryRepository implements vault entry persistence for SQLite.
// UUIDs are stored as text and timestamps as Unix milliseconds.
type SQLiteVaultEntryRepository struct {
	db *sql.DB
}

// Create inserts a new entry.
func (s *SQLiteVaultEntryRepository) Create(ctx context.Context, entry *vaultDomain.VaultEntry) error {
	querier := database.GetTx(ctx, s.db)

	query := `INSERT INTO vault_entries (` + vaultEntryColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID.String(),
		entry.OwnerID,
		entry.EncryptedData,
		entry.IV,
		nullableString(entry.EncryptedDEK),
		nullableString(entry.KeyIV),
		string(entry.EncryptionVersion),
		entry.CreatedAt.UnixMilli(),
		entry.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create vault entry")
	}

	return nil
}

// FindByID returns the entry with the given ID.
func (s *SQLiteVaultEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT ` + vaultEntryColumns + ` FROM vault_entries WHERE id = ?`

	entry, err := s.scan(querier.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrVaultEntryNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get vault entry")
	}

	return entry, nil
}

// Update replaces the encryption fields of an entry owned by entry.OwnerID.
func (s *SQLiteVaultEntryRepository) Update(ctx context.Context, entry *vaultDomain.VaultEntry) error {
	querier := database.GetTx(ctx, s.db)

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
		entry.UpdatedAt.UnixMilli(),
		entry.ID.String(),
		entry.OwnerID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault entry")
	}

	return expectOneRow(result, vaultDomain.ErrVaultEntryNotFound)
}

// UpdateEncryption replaces the encryption fields only while the stored
// version equals from.
func (s *SQLiteVaultEntryRepository) UpdateEncryption(
	ctx context.Context,
	entry *vaultDomain.VaultEntry,
	from cryptoDomain.EncryptionVersion,
) error {
	querier := database.GetTx(ctx, s.db)

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
		entry.UpdatedAt.UnixMilli(),
		entry.ID.String(),
		string(from),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault entry encryption")
	}

	return expectOneRow(result, vaultDomain.ErrAlreadyMigrated)
}

// Delete removes an entry owned by ownerID.
func (s *SQLiteVaultEntryRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	querier := database.GetTx(ctx, s.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM vault_entries WHERE id = ? AND owner_id = ?`,
		id.String(),
		ownerID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete vault entry")
	}

	return expectOneRow(result, vaultDomain.ErrVaultEntryNotFound)
}

// FindLegacyEntries returns up to limit v1 entries, oldest first.
func (s *SQLiteVaultEntryRepository) FindLegacyEntries(
	ctx context.Context,
	limit int,
) ([]*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT ` + vaultEntryColumns + `
			  FROM vault_entries
			  WHERE encryption_version = ?
			  ORDER BY created_at ASC, id ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, string(cryptoDomain.EncryptionV1), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list legacy vault entries")
	}

	return collect(rows, s.scan)
}

// FindLegacyEntriesAfter returns up to limit v1 entries after cursor, oldest first.
func (s *SQLiteVaultEntryRepository) FindLegacyEntriesAfter(
	ctx context.Context,
	cursor vaultDomain.LegacyCursor,
	limit int,
) ([]*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT ` + vaultEntryColumns + `
			  FROM vault_entries
			  WHERE encryption_version = ? AND (created_at > ? OR (created_at = ? AND id > ?))
			  ORDER BY created_at ASC, id ASC
			  LIMIT ?`

	createdAt := cursor.CreatedAt.UnixMilli()
	rows, err := querier.QueryContext(
		ctx,
		query,
		string(cryptoDomain.EncryptionV1),
		createdAt,
		createdAt,
		cursor.ID.String(),
		limit,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list legacy vault entries")
	}

	return collect(rows, s.scan)
}

// CountByEncryptionVersion returns the number of entries per version.
func (s *SQLiteVaultEntryRepository) CountByEncryptionVersion(
	ctx context.Context,
) (vaultDomain.VersionCounts, error) {
	return countByEncryptionVersion(ctx, database.GetTx(ctx, s.db))
}

func (s *SQLiteVaultEntryRepository) scan(row rowScanner) (*vaultDomain.VaultEntry, error) {
	var entry vaultDomain.VaultEntry
	var id, version string
	var encryptedDEK, keyIV sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&id,
		&entry.OwnerID,
		&entry.EncryptedData,
		&entry.IV,
		&encryptedDEK,
		&keyIV,
		&version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if entry.ID, err = uuid.Parse(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse vault entry id")
	}

	entry.EncryptedDEK = stringPtr(encryptedDEK)
	entry.KeyIV = stringPtr(keyIV)
	entry.EncryptionVersion = cryptoDomain.EncryptionVersion(version)
	entry.CreatedAt = time.UnixMilli(createdAt).UTC()
	entry.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return &entry, nil
}

// NewSQLiteVaultEntryRepository creates a new SQLite vault entry repository.
func NewSQLiteVaultEntryRepository(db *sql.DB) *SQLiteVaultEntryRepository {
	return &SQLiteVaultEntryRepository{db: db}
}
