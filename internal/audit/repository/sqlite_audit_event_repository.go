package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	"github.com/allisson/datavault/internal/database"
	apperrors "github.com/allisson/datavault/internal/errors"
)

// SQLiteAuditEventRepository implements audit event persistence for SQLite.
// UUIDs are stored as text and timestamps as Unix milliseconds so that
// ordering is numeric.
type SQLiteAuditEventRepository struct {
	db *sql.DB
}

// Create inserts an event. Returns ErrChainForked when the user already has an
// event with the same previous hash (or a second genesis event).
func (s *SQLiteAuditEventRepository) Create(ctx context.Context, event *auditDomain.AuditEvent) error {
	querier := database.GetTx(ctx, s.db)

	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_events (` + auditEventColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID.String(),
		event.UserID,
		string(event.EventType),
		event.Action,
		event.ActorID,
		string(event.ActorType),
		event.Timestamp.UnixMilli(),
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
func (s *SQLiteAuditEventRepository) GetLatestByUser(
	ctx context.Context,
	userID string,
) (*auditDomain.AuditEvent, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT ` + auditEventColumns + `
			  FROM audit_events
			  WHERE user_id = ?
			  ORDER BY occurred_at DESC, id DESC
			  LIMIT 1`

	event, err := s.scan(querier.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auditDomain.ErrAuditEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest audit event")
	}

	return event, nil
}

// ListByUser returns the user's events in ascending timestamp order.
func (s *SQLiteAuditEventRepository) ListByUser(
	ctx context.Context,
	userID string,
) ([]*auditDomain.AuditEvent, error) {
	querier := database.GetTx(ctx, s.db)

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
		event, err := s.scan(rows)
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
func (s *SQLiteAuditEventRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	return listUserIDs(ctx, database.GetTx(ctx, s.db))
}

func (s *SQLiteAuditEventRepository) scan(row rowScanner) (*auditDomain.AuditEvent, error) {
	var event auditDomain.AuditEvent
	var id, eventType, actorType string
	var occurredAt int64
	var previousHash, errorMessage, metadata sql.NullString

	err := row.Scan(
		&id,
		&event.UserID,
		&eventType,
		&event.Action,
		&event.ActorID,
		&actorType,
		&occurredAt,
		&previousHash,
		&event.CurrentHash,
		&event.Success,
		&errorMessage,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	if event.ID, err = uuid.Parse(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse audit event id")
	}

	event.EventType = auditDomain.EventType(eventType)
	event.ActorType = auditDomain.ActorType(actorType)
	event.Timestamp = time.UnixMilli(occurredAt).UTC()
	event.PreviousHash = stringPtr(previousHash)
	event.ErrorMessage = stringPtr(errorMessage)

	if metadata.Valid {
		if event.Metadata, err = decodeMetadata([]byte(metadata.String)); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

// NewSQLiteAuditEventRepository creates a new SQLite audit event repository.
func NewSQLiteAuditEventRepository(db *sql.DB) *SQLiteAuditEventRepository {
	return &SQLiteAuditEventRepository{db: db}
}
