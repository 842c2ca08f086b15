package repository

import (
	"context"
	"database/sql"
	"errors"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	"github.com/allisson/datavault/internal/database"
	apperrors "github.com/allisson/datavault/internal/errors"
)

// PostgreSQLAuditEventRepository implements audit event persistence for PostgreSQL.
// Uses native UUID, TIMESTAMPTZ and JSONB types with transaction support via database.GetTx().
type PostgreSQLAuditEventRepository struct {
	db *sql.DB
}

// Create inserts an event. Returns ErrChainForked when the user already has an
// event with the same previous hash (or a second genesis event).
func (p *PostgreSQLAuditEventRepository) Create(ctx context.Context, event *auditDomain.AuditEvent) error {
	querier := database.GetTx(ctx, p.db)

	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_events (` + auditEventColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = querier.ExecContext(
		ctx,
		query,
		event.ID,
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
func (p *PostgreSQLAuditEventRepository) GetLatestByUser(
	ctx context.Context,
	userID string,
) (*auditDomain.AuditEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + auditEventColumns + `
			  FROM audit_events
			  WHERE user_id = $1
			  ORDER BY occurred_at DESC, id DESC
			  LIMIT 1`

	event, err := p.scan(querier.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auditDomain.ErrAuditEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest audit event")
	}

	return event, nil
}

// ListByUser returns the user's events in ascending timestamp order.
func (p *PostgreSQLAuditEventRepository) ListByUser(
	ctx context.Context,
	userID string,
) ([]*auditDomain.AuditEvent, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + auditEventColumns + `
			  FROM audit_events
			  WHERE user_id = $1
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
		event, err := p.scan(rows)
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
func (p *PostgreSQLAuditEventRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	return listUserIDs(ctx, database.GetTx(ctx, p.db))
}

func (p *PostgreSQLAuditEventRepository) scan(row rowScanner) (*auditDomain.AuditEvent, error) {
	var event auditDomain.AuditEvent
	var eventType, actorType string
	var previousHash, errorMessage sql.NullString
	var metadata []byte

	err := row.Scan(
		&event.ID,
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

func listUserIDs(ctx context.Context, querier database.Querier) ([]string, error) {
	rows, err := querier.QueryContext(ctx, `SELECT DISTINCT user_id FROM audit_events ORDER BY user_id`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audited users")
	}
	defer func() {
		_ = rows.Close()
	}()

	userIDs := make([]string, 0)
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user id")
		}
		userIDs = append(userIDs, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audited users")
	}

	return userIDs, nil
}

// NewPostgreSQLAuditEventRepository creates a new PostgreSQL audit event repository.
func NewPostgreSQLAuditEventRepository(db *sql.DB) *PostgreSQLAuditEventRepository {
	return &PostgreSQLAuditEventRepository{db: db}
}
