// Package usecase implements the audit append protocol and chain verification.
package usecase

import (
	"context"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
)

// AuditEventRepository persists audit events. Implementations must support
// transaction-aware operations via context propagation.
type AuditEventRepository interface {
	// Create appends an event. Returns ErrChainForked if another event already
	// has the same parent for that user.
	Create(ctx context.Context, event *auditDomain.AuditEvent) error

	// GetLatestByUser returns the most recent event of a user by timestamp.
	// Returns ErrAuditEventNotFound when the user has no events.
	GetLatestByUser(ctx context.Context, userID string) (*auditDomain.AuditEvent, error)

	// ListByUser returns all events of a user in ascending timestamp order.
	ListByUser(ctx context.Context, userID string) ([]*auditDomain.AuditEvent, error)

	// ListUserIDs returns every user that has at least one event.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// AuditUseCase appends events to per-user hash chains and verifies them.
type AuditUseCase interface {
	// Record appends one event to the user's chain.
	Record(ctx context.Context, input *auditDomain.RecordInput) (*auditDomain.AuditEvent, error)

	// RecordWith runs fn and appends the event in the same transaction, holding
	// the user's chain lock until commit. If fn fails nothing is appended and
	// fn's error is returned.
	RecordWith(
		ctx context.Context,
		input *auditDomain.RecordInput,
		fn func(ctx context.Context) error,
	) (*auditDomain.AuditEvent, error)

	// VerifyUserChain loads and verifies one user's chain.
	VerifyUserChain(ctx context.Context, userID string) (*auditDomain.ChainReport, error)

	// VerifyAll verifies the chain of every user with events.
	VerifyAll(ctx context.Context) ([]*auditDomain.ChainReport, error)
}
