package repository

import (
	"context"
	"database/sql"
	"errors"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	"github.com/allisson/datavault/internal/database"
	apperrors "github.com/allisson/datavault/internal/errors"
)

// MySQLAuditEventRepository implements audit event persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
// Requires parseTime=true in the DSN.
type MySQLAuditEventRepository struct {
	db *sql.DB
}

// Create inserts an event. Returns ErrChainForked when the user already has an
// event with the same previous hash.
func (m *MySQLAuditEventRepository) Create(ctx context.Context, event *auditDomain.AuditEvent) error {
	querier := database.GetTx(ctx, m.db)

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit event id")
	}

	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_events (` + auditEventColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		event.UserID,
		string(event.EventType),
		event.Action,
		event.ActorID,
		string(event.ActorType),
		event.Timestamp.UTC(),
		nullableString(event.PreviousHash),
		event.CurrentHash,
		event.Success,
		nullableString(event.ErrorMessage),
		metadata,
	)
	if err != nil {
		return createError(err)
	}

	return nil
}

// GetLatestByUser returns the user's most recent event by timestamp.
func (m *MySQLAuditEventRepository) GetLatestByUser(
	ctx context.Context,
	userID string,
) (*auditDomain.AuditEvent, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + auditEventColumns + `
			  FROM audit_events
			  WHERE user_id = ?
			  ORDER BY occurred_at DESC, id DESC
			  LIMIT 1`

	event, err := m.scan(querier.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auditDomain.ErrAuditEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest audit event")
	}

	return event, nil
}

// ListByUser returns the user's events in ascending timestamp order.
func (m *MySQLAuditEventRepository) ListByUser(
	ctx context.Context,
	userID string,
) ([]*auditDomain.AuditEvent, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + auditEventColumns + `
			  FROM audit_events
			  WHERE user_id = ?
			  ORDER BY occurred_at ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]*auditDomain.AuditEvent, 0)
	for rows.Next() {
		event, err := m.scan(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit event")
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit events")
	}

	return events, nil
}

// ListUserIDs returns every user with at least one event, sorted.
func (m *MySQLAuditEventRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	return listUserIDs(ctx, database.GetTx(ctx, m.db))
}

func (m *MySQLAuditEventRepository) scan(row rowScanner) (*auditDomain.AuditEvent, error) {
	var event auditDomain.AuditEvent
	var id []byte
	var eventType, actorType string
	var previousHash, errorMessage sql.NullString
	var metadata []byte

	err := row.Scan(
		&id,
		&event.UserID,
		&eventType,
		&event.Action,
		&event.ActorID,
		&actorType,
		&event.Timestamp,
		&previousHash,
		&event.CurrentHash,
		&event.Success,
		&errorMessage,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	if err := event.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit event id")
	}

	event.EventType = auditDomain.EventType(eventType)
	event.ActorType = auditDomain.ActorType(actorType)
	event.Timestamp = event.Timestamp.UTC()
	event.PreviousHash = stringPtr(previousHash)
	event.ErrorMessage = stringPtr(errorMessage)

	if event.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, err
	}

	return &event, nil
}

// NewMySQLAuditEventRepository creates a new MySQL audit event repository.
func NewMySQLAuditEventRepository(db *sql.DB) *MySQLAuditEventRepository {
	return &MySQLAuditEventRepository{db: db}
}
