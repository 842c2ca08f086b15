package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	auditUseCase "github.com/allisson/datavault/internal/audit/usecase"
	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	cryptoService "github.com/allisson/datavault/internal/crypto/service"
	apperrors "github.com/allisson/datavault/internal/errors"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

const (
	actionCreateEntry = "create_entry"
	actionReadEntry   = "read_entry"
	actionUpdateEntry = "update_entry"
	actionDeleteEntry = "delete_entry"
)

// entryUseCase implements EntryUseCase. Writes persist the entry and append
// the success event in one transaction; failures append a separate event
// with a generic message.
type entryUseCase struct {
	repo       VaultEntryRepository
	keyManager cryptoService.KeyManager
	auditUC    auditUseCase.AuditUseCase
	logger     *slog.Logger
	now        func() time.Time
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(
	repo VaultEntryRepository,
	keyManager cryptoService.KeyManager,
	auditUC auditUseCase.AuditUseCase,
	logger *slog.Logger,
) EntryUseCase {
	return &entryUseCase{
		repo:       repo,
		keyManager: keyManager,
		auditUC:    auditUC,
		logger:     logger,
		now:        time.Now,
	}
}

// Create encrypts and stores a new v2 entry.
func (e *entryUseCase) Create(
	ctx context.Context,
	input *vaultDomain.CreateEntryInput,
) (*vaultDomain.DecryptedEntry, error) {
	if input == nil {
		return nil, apperrors.ErrInvalidInput
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	payload, err := e.keyManager.EnvelopeEncrypt(input.Data)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt entry")
	}

	now := e.now().UTC()
	entry := &vaultDomain.VaultEntry{
		ID:        uuid.Must(uuid.NewV7()),
		OwnerID:   input.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := entry.SetPayload(payload); err != nil {
		return nil, err
	}

	_, err = e.auditUC.RecordWith(
		ctx,
		successEvent(entry.OwnerID, auditDomain.EventDataCreated, actionCreateEntry, entry.ID),
		func(ctx context.Context) error {
			return e.repo.Create(ctx, entry)
		},
	)
	if err != nil {
		e.recordFailure(ctx, entry.OwnerID, auditDomain.EventDataCreated, actionCreateEntry, entry.ID, err)
		return nil, apperrors.Wrap(err, "failed to create entry")
	}

	return decrypted(entry, input.Data), nil
}

// Get loads and decrypts an entry. The read is only returned once its audit
// event has been appended.
func (e *entryUseCase) Get(
	ctx context.Context,
	id uuid.UUID,
	ownerID string,
) (*vaultDomain.DecryptedEntry, error) {
	entry, data, err := e.load(ctx, id, ownerID)
	if err != nil {
		e.recordFailure(ctx, ownerID, auditDomain.EventDataAccessed, actionReadEntry, id, err)
		return nil, publicError(err)
	}

	event := successEvent(ownerID, auditDomain.EventDataAccessed, actionReadEntry, id)
	if _, err := e.auditUC.Record(ctx, event); err != nil {
		cryptoDomain.Zero(data)
		return nil, apperrors.Wrap(err, "failed to record entry access")
	}

	return decrypted(entry, data), nil
}

// Update re-encrypts the entry with new data under a fresh DEK.
func (e *entryUseCase) Update(
	ctx context.Context,
	input *vaultDomain.UpdateEntryInput,
) (*vaultDomain.DecryptedEntry, error) {
	if input == nil {
		return nil, apperrors.ErrInvalidInput
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	entry, err := e.find(ctx, input.ID, input.OwnerID)
	if err != nil {
		e.recordFailure(ctx, input.OwnerID, auditDomain.EventDataUpdated, actionUpdateEntry, input.ID, err)
		return nil, publicError(err)
	}

	payload, err := e.keyManager.EnvelopeEncrypt(input.Data)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encrypt entry")
	}
	if err := entry.SetPayload(payload); err != nil {
		return nil, err
	}
	entry.UpdatedAt = e.now().UTC()

	_, err = e.auditUC.RecordWith(
		ctx,
		successEvent(entry.OwnerID, auditDomain.EventDataUpdated, actionUpdateEntry, entry.ID),
		func(ctx context.Context) error {
			return e.repo.Update(ctx, entry)
		},
	)
	if err != nil {
		e.recordFailure(ctx, entry.OwnerID, auditDomain.EventDataUpdated, actionUpdateEntry, entry.ID, err)
		return nil, publicError(err)
	}

	return decrypted(entry, input.Data), nil
}

// Delete removes the entry.
func (e *entryUseCase) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	_, err := e.auditUC.RecordWith(
		ctx,
		successEvent(ownerID, auditDomain.EventDataDeleted, actionDeleteEntry, id),
		func(ctx context.Context) error {
			return e.repo.Delete(ctx, id, ownerID)
		},
	)
	if err != nil {
		e.recordFailure(ctx, ownerID, auditDomain.EventDataDeleted, actionDeleteEntry, id, err)
		return publicError(err)
	}
	return nil
}

// find returns the entry if it exists and belongs to ownerID.
func (e *entryUseCase) find(ctx context.Context, id uuid.UUID, ownerID string) (*vaultDomain.VaultEntry, error) {
	entry, err := e.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.OwnerID != ownerID {
		return nil, vaultDomain.ErrVaultEntryNotFound
	}
	return entry, nil
}

// load finds and decrypts the entry with the scheme its version tag selects.
func (e *entryUseCase) load(
	ctx context.Context,
	id uuid.UUID,
	ownerID string,
) (*vaultDomain.VaultEntry, []byte, error) {
	entry, err := e.find(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}

	payload, err := entry.Payload()
	if err != nil {
		return nil, nil, err
	}

	data, err := e.keyManager.Decrypt(payload)
	if err != nil {
		return nil, nil, err
	}
	return entry, data, nil
}

// recordFailure appends a failure event. It is best effort: the caller's
// original error is what gets returned.
func (e *entryUseCase) recordFailure(
	ctx context.Context,
	ownerID string,
	eventType auditDomain.EventType,
	action string,
	entryID uuid.UUID,
	cause error,
) {
	input := &auditDomain.RecordInput{
		UserID:       ownerID,
		EventType:    eventType,
		Action:       action,
		ActorID:      ownerID,
		ActorType:    auditDomain.ActorUser,
		Success:      false,
		ErrorMessage: failureMessage(cause),
		Metadata:     map[string]any{"entry_id": entryID.String()},
	}
	if _, err := e.auditUC.Record(context.WithoutCancel(ctx), input); err != nil {
		e.logger.Error("failed to record audit failure event",
			slog.String("entry_id", entryID.String()),
			slog.String("action", action),
			slog.Any("error", err),
		)
	}
}

func successEvent(
	ownerID string,
	eventType auditDomain.EventType,
	action string,
	entryID uuid.UUID,
) *auditDomain.RecordInput {
	return &auditDomain.RecordInput{
		UserID:    ownerID,
		EventType: eventType,
		Action:    action,
		ActorID:   ownerID,
		ActorType: auditDomain.ActorUser,
		Success:   true,
		Metadata:  map[string]any{"entry_id": entryID.String()},
	}
}

// failureMessage is stored in the audit log, so it never carries the cause's text.
func failureMessage(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return "entry not found"
	case apperrors.Is(err, apperrors.ErrIntegrity):
		return "data unavailable"
	default:
		return "internal error"
	}
}

// publicError hides decryption and integrity detail behind ErrDataUnavailable.
func publicError(err error) error {
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return vaultDomain.ErrVaultEntryNotFound
	case apperrors.Is(err, apperrors.ErrIntegrity):
		return vaultDomain.ErrDataUnavailable
	default:
		return err
	}
}

func decrypted(entry *vaultDomain.VaultEntry, data []byte) *vaultDomain.DecryptedEntry {
	return &vaultDomain.DecryptedEntry{
		ID:                entry.ID,
		OwnerID:           entry.OwnerID,
		Data:              data,
		EncryptionVersion: entry.EncryptionVersion,
		CreatedAt:         entry.CreatedAt,
		UpdatedAt:         entry.UpdatedAt,
	}
}
