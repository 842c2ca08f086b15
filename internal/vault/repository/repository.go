// Package repository provides PostgreSQL, MySQL and SQLite persistence for vault entries.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	"github.com/allisson/datavault/internal/database"
	apperrors "github.com/allisson/datavault/internal/errors"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

const vaultEntryColumns = `id, owner_id, encrypted_data, iv, encrypted_dek, key_iv,
	encryption_version, created_at, updated_at`

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// expectOneRow maps a zero-row write to notMatched.
func expectOneRow(result sql.Result, notMatched error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if affected == 0 {
		return notMatched
	}
	return nil
}

// countByEncryptionVersion uses portable SQL shared by every driver.
func countByEncryptionVersion(ctx context.Context, querier database.Querier) (vaultDomain.VersionCounts, error) {
	var counts vaultDomain.VersionCounts

	rows, err := querier.QueryContext(
		ctx,
		`SELECT encryption_version, COUNT(*) FROM vault_entries GROUP BY encryption_version`,
	)
	if err != nil {
		return counts, apperrors.Wrap(err, "failed to count vault entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var version string
		var count int64
		if err := rows.Scan(&version, &count); err != nil {
			return counts, apperrors.Wrap(err, "failed to scan vault entry count")
		}

		switch cryptoDomain.EncryptionVersion(version) {
		case cryptoDomain.EncryptionV1:
			counts.V1 = count
		case cryptoDomain.EncryptionV2:
			counts.V2 = count
		default:
			return counts, fmt.Errorf("%w: unknown encryption version %q", vaultDomain.ErrMalformedRecord, version)
		}
	}

	if err := rows.Err(); err != nil {
		return counts, apperrors.Wrap(err, "failed to iterate vault entry counts")
	}

	return counts, nil
}

// collect scans every row with scan.
func collect(
	rows *sql.Rows,
	scan func(rowScanner) (*vaultDomain.VaultEntry, error),
) ([]*vaultDomain.VaultEntry, error) {
	defer func() {
		_ = rows.Close()
	}()

	entries := make([]*vaultDomain.VaultEntry, 0)
	for rows.Next() {
		entry, err := scan(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan vault entry")
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate vault entries")
	}

	return entries, nil
}
