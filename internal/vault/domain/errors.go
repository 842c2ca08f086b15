package domain

import (
	"github.com/allisson/datavault/internal/errors"
)

// Vault error definitions.
var (
	// ErrVaultEntryNotFound indicates the entry does not exist or belongs to another owner.
	ErrVaultEntryNotFound = errors.Wrap(errors.ErrNotFound, "vault entry not found")

	// ErrMalformedRecord indicates a stored entry whose version tag and
	// encryption fields disagree or do not parse.
	ErrMalformedRecord = errors.Wrap(errors.ErrIntegrity, "malformed vault entry")

	// ErrDataUnavailable is returned to callers instead of any decryption or
	// integrity failure. It does not reveal whether the key was wrong or the
	// data was tampered with.
	ErrDataUnavailable = errors.Wrap(errors.ErrIntegrity, "data unavailable")

	// ErrAlreadyMigrated indicates the guarded update found the entry no longer at v1.
	ErrAlreadyMigrated = errors.Wrap(errors.ErrConflict, "vault entry is no longer v1")

	// ErrInvalidMigrationConfig indicates a MigrationConfig that failed validation.
	ErrInvalidMigrationConfig = errors.Wrap(errors.ErrInvalidInput, "invalid migration config")
)
