package domain

import (
	"github.com/allisson/datavault/internal/errors"
)

// Audit error definitions.
var (
	// ErrAuditEventNotFound indicates the user has no audit events yet.
	ErrAuditEventNotFound = errors.Wrap(errors.ErrNotFound, "audit event not found")

	// ErrChainForked indicates another event already claims the same parent in
	// the user's chain.
	ErrChainForked = errors.Wrap(errors.ErrConflict, "audit chain fork rejected")

	// ErrInvalidAuditEvent indicates a RecordInput missing required fields.
	ErrInvalidAuditEvent = errors.Wrap(errors.ErrInvalidInput, "invalid audit event")
)
