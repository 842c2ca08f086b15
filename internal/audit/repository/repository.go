// Package repository provides PostgreSQL, MySQL and SQLite persistence for audit events.
package repository

import (
	"database/sql"
	"encoding/json"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	"github.com/allisson/datavault/internal/database"
	apperrors "github.com/allisson/datavault/internal/errors"
)

const auditEventColumns = `id, user_id, event_type, action, actor_id, actor_type, occurred_at,
	previous_hash, current_hash, success, error_message, metadata`

// encodeMetadata returns the JSON text for metadata, or nil (NULL) when empty.
func encodeMetadata(metadata map[string]any) (any, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit event metadata")
	}
	return string(data), nil
}

func decodeMetadata(raw []byte) (map[string]any, error) {
	if raw == nil {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit event metadata")
	}
	return metadata, nil
}

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

// createError maps a failed insert to ErrChainForked when the unique chain
// index rejected it.
func createError(err error) error {
	if database.IsUniqueViolation(err) {
		return auditDomain.ErrChainForked
	}
	return apperrors.Wrap(err, "failed to create audit event")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
