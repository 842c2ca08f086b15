package usecase

import (
	"context"
	"hash/maphash"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	auditService "github.com/allisson/datavault/internal/audit/service"
	"github.com/allisson/datavault/internal/database"
	apperrors "github.com/allisson/datavault/internal/errors"
	customValidation "github.com/allisson/datavault/internal/validation"
)

const chainLockStripes = 256

// auditUseCase serializes appends per user: reading the latest event and
// inserting the next one happen under the user's chain lock and inside one
// transaction. The unique (user_id, previous_hash) index rejects forks from
// other processes.
type auditUseCase struct {
	txManager database.TxManager
	repo      AuditEventRepository
	logger    *slog.Logger
	now       func() time.Time

	seed  maphash.Seed
	locks [chainLockStripes]sync.Mutex
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(
	txManager database.TxManager,
	repo AuditEventRepository,
	logger *slog.Logger,
) AuditUseCase {
	return &auditUseCase{
		txManager: txManager,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
		seed:      maphash.MakeSeed(),
	}
}

func (a *auditUseCase) chainLock(userID string) *sync.Mutex {
	return &a.locks[maphash.String(a.seed, userID)%chainLockStripes]
}

func validateRecordInput(input *auditDomain.RecordInput) error {
	if input == nil {
		return auditDomain.ErrInvalidAuditEvent
	}

	err := validation.ValidateStruct(input,
		validation.Field(&input.UserID, validation.Required, customValidation.NotBlank),
		validation.Field(&input.EventType, validation.Required, validation.In(
			auditDomain.EventDataCreated,
			auditDomain.EventDataAccessed,
			auditDomain.EventDataUpdated,
			auditDomain.EventDataDeleted,
			auditDomain.EventConsentGranted,
			auditDomain.EventConsentRevoked,
			auditDomain.EventDataExported,
		)),
		validation.Field(&input.Action, validation.Required, customValidation.NotBlank),
		validation.Field(&input.ActorID, validation.Required),
		validation.Field(&input.ActorType, validation.Required, validation.In(
			auditDomain.ActorUser,
			auditDomain.ActorSystem,
		)),
	)
	if err != nil {
		return apperrors.Wrap(auditDomain.ErrInvalidAuditEvent, err.Error())
	}

	return nil
}

// Record appends one event to the user's chain.
func (a *auditUseCase) Record(
	ctx context.Context,
	input *auditDomain.RecordInput,
) (*auditDomain.AuditEvent, error) {
	return a.RecordWith(ctx, input, nil)
}

// RecordWith runs fn and appends the event inside one transaction while holding
// the user's chain lock.
func (a *auditUseCase) RecordWith(
	ctx context.Context,
	input *auditDomain.RecordInput,
	fn func(ctx context.Context) error,
) (*auditDomain.AuditEvent, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	lock := a.chainLock(input.UserID)
	lock.Lock()
	defer lock.Unlock()

	var event *auditDomain.AuditEvent
	err := a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if fn != nil {
			if err := fn(ctx); err != nil {
				return err
			}
		}

		var err error
		event, err = a.append(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

// append links input to the user's latest event and persists it. Must run
// under the user's chain lock.
func (a *auditUseCase) append(
	ctx context.Context,
	input *auditDomain.RecordInput,
) (*auditDomain.AuditEvent, error) {
	latest, err := a.repo.GetLatestByUser(ctx, input.UserID)
	if err != nil && !apperrors.Is(err, auditDomain.ErrAuditEventNotFound) {
		return nil, apperrors.Wrap(err, "failed to read latest audit event")
	}

	timestamp := a.now().UTC().Truncate(time.Millisecond)

	var previousHash *string
	if latest != nil {
		h := latest.CurrentHash
		previousHash = &h

		// Chain order is timestamp order, so each event must be strictly later.
		if !timestamp.After(latest.Timestamp) {
			timestamp = latest.Timestamp.UTC().Add(time.Millisecond)
		}
	}

	event := &auditDomain.AuditEvent{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       input.UserID,
		EventType:    input.EventType,
		Action:       input.Action,
		ActorID:      input.ActorID,
		ActorType:    input.ActorType,
		Timestamp:    timestamp,
		PreviousHash: previousHash,
		Success:      input.Success,
		Metadata:     input.Metadata,
	}
	if input.ErrorMessage != "" {
		msg := input.ErrorMessage
		event.ErrorMessage = &msg
	}
	event.CurrentHash = auditService.CreateAuditHash(previousHash, auditService.InputFromEvent(event))

	if err := a.repo.Create(ctx, event); err != nil {
		return nil, apperrors.Wrap(err, "failed to create audit event")
	}

	return event, nil
}

// VerifyUserChain loads and verifies one user's chain.
func (a *auditUseCase) VerifyUserChain(ctx context.Context, userID string) (*auditDomain.ChainReport, error) {
	events, err := a.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit events")
	}

	report := &auditDomain.ChainReport{
		UserID:     userID,
		EventCount: len(events),
		Valid:      true,
		BrokenAt:   -1,
	}

	if idx := auditService.FindChainBreak(events); idx >= 0 {
		report.Valid = false
		report.BrokenAt = idx
		if events[idx] != nil {
			report.BrokenEventID = events[idx].ID
		}

		a.logger.Warn("audit chain verification failed",
			slog.String("user_id", userID),
			slog.Int("broken_at", idx),
			slog.String("event_id", report.BrokenEventID.String()),
		)
	}

	return report, nil
}

// VerifyAll verifies the chain of every user with events.
func (a *auditUseCase) VerifyAll(ctx context.Context) ([]*auditDomain.ChainReport, error) {
	userIDs, err := a.repo.ListUserIDs(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audited users")
	}

	reports := make([]*auditDomain.ChainReport, 0, len(userIDs))
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		report, err := a.VerifyUserChain(ctx, userID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, nil
}
