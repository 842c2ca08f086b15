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

// PostgreSQLVaultEntryRepository implements vault entry persistence for PostgreSQL.
type PostgreSQLVaultEntryRepository struct {
	db *sql.DB
}

// Create inserts a new entry.
func (p *PostgreSQLVaultEntryRepository) Create(ctx context.Context, entry *vaultDomain.VaultEntry) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO vault_entries (` + vaultEntryColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.OwnerID,
		entry.EncryptedData,
		entry.IV,
		nullableString(entry.EncryptedDEK),
		nullableString(entry.KeyIV),
		string(entry.EncryptionVersion),
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create vault entry")
	}

	return nil
}

// FindByID returns the entry with the given ID.
func (p *PostgreSQLVaultEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultEntryColumns + ` FROM vault_entries WHERE id = $1`

	entry, err := p.scan(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrVaultEntryNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get vault entry")
	}

	return entry, nil
}

// Update replaces the encryption fields of an entry owned by entry.OwnerID.
func (p *PostgreSQLVaultEntryRepository) Update(ctx context.Context, entry *vaultDomain.VaultEntry) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE vault_entries
			  SET encrypted_data = $1, iv = $2, encrypted_dek = $3, key_iv = $4,
			      encryption_version = $5, updated_at = $6
			  WHERE id = $7 AND owner_id = $8`

	result, err := querier.ExecContext(
		ctx,
		query,
		entry.EncryptedData,
		entry.IV,
		nullableString(entry.EncryptedDEK),
		nullableString(entry.KeyIV),
		string(entry.EncryptionVersion),
		entry.UpdatedAt,
		entry.ID,
		entry.OwnerID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault entry")
	}

	return expectOneRow(result, vaultDomain.ErrVaultEntryNotFound)
}

// UpdateEncryption replaces the encryption fields only while the stored
// version equals from.
func (p *PostgreSQLVaultEntryRepository) UpdateEncryption(
	ctx context.Context,
	entry *vaultDomain.VaultEntry,
	from cryptoDomain.EncryptionVersion,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE vault_entries
			  SET encrypted_data = $1, iv = $2, encrypted_dek = $3, key_iv = $4,
			      encryption_version = $5, updated_at = $6
			  WHERE id = $7 AND encryption_version = $8`

	result, err := querier.ExecContext(
		ctx,
		query,
		entry.EncryptedData,
		entry.IV,
		nullableString(entry.EncryptedDEK),
		nullableString(entry.KeyIV),
		string(entry.EncryptionVersion),
		entry.UpdatedAt,
		entry.ID,
		string(from),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault entry encryption")
	}

	return expectOneRow(result, vaultDomain.ErrAlreadyMigrated)
}

// Delete removes an entry owned by ownerID.
func (p *PostgreSQLVaultEntryRepository) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM vault_entries WHERE id = $1 AND owner_id = $2`,
		id,
		ownerID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete vault entry")
	}

	return expectOneRow(result, vaultDomain.ErrVaultEntryNotFound)
}

// FindLegacyEntries returns up to limit v1 entries, oldest first.
func (p *PostgreSQLVaultEntryRepository) FindLegacyEntries(
	ctx context.Context,
	limit int,
) ([]*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultEntryColumns + `
			  FROM vault_entries
			  WHERE encryption_version = $1
			  ORDER BY created_at ASC, id ASC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, string(cryptoDomain.EncryptionV1), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list legacy vault entries")
	}

	return collect(rows, p.scan)
}

// FindLegacyEntriesAfter returns up to limit v1 entries after cursor, oldest first.
func (p *PostgreSQLVaultEntryRepository) FindLegacyEntriesAfter(
	ctx context.Context,
	cursor vaultDomain.LegacyCursor,
	limit int,
) ([]*vaultDomain.VaultEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultEntryColumns + `
			  FROM vault_entries
			  WHERE encryption_version = $1 AND (created_at, id) > ($2, $3)
			  ORDER BY created_at ASC, id ASC
			  LIMIT $4`

	rows, err := querier.QueryContext(
		ctx,
		query,
		string(cryptoDomain.EncryptionV1),
		cursor.CreatedAt,
		cursor.ID,
		limit,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list legacy vault entries")
	}

	return collect(rows, p.scan)
}

// CountByEncryptionVersion returns the number of entries per version.
func (p *PostgreSQLVaultEntryRepository) CountByEncryptionVersion(
	ctx context.Context,
) (vaultDomain.VersionCounts, error) {
	return countByEncryptionVersion(ctx, database.GetTx(ctx, p.db))
}

func (p *PostgreSQLVaultEntryRepository) scan(row rowScanner) (*vaultDomain.VaultEntry, error) {
	var entry vaultDomain.VaultEntry
	var version string
	var encryptedDEK, keyIV sql.NullString

	err := row.Scan(
		&entry.ID,
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

	entry.EncryptedDEK = stringPtr(encryptedDEK)
	entry.KeyIV = stringPtr(keyIV)
	entry.EncryptionVersion = cryptoDomain.EncryptionVersion(version)
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = entry.UpdatedAt.UTC()

	return &entry, nil
}

// NewPostgreSQLVaultEntryRepository creates a new PostgreSQL vault entry repository.
func NewPostgreSQLVaultEntryRepository(db *sql.DB) *PostgreSQLVaultEntryRepository {
	return &PostgreSQLVaultEntryRepository{db: db}
}
