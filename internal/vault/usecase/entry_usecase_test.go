package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
	auditMocks "github.com/allisson/datavault/internal/audit/usecase/mocks"
	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	cryptoService "github.com/allisson/datavault/internal/crypto/service"
	apperrors "github.com/allisson/datavault/internal/errors"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
	vaultMocks "github.com/allisson/datavault/internal/vault/usecase/mocks"
)

const sensitiveDoc = `{"ssn":"123-45-6789"}`

func newEntryUseCaseWithMocks(
	km cryptoService.KeyManager,
) (EntryUseCase, *vaultMocks.MockVaultEntryRepository, *auditMocks.MockAuditUseCase) {
	repo := &vaultMocks.MockVaultEntryRepository{}
	auditUC := &auditMocks.MockAuditUseCase{}
	return NewEntryUseCase(repo, km, auditUC, discardLogger()), repo, auditUC
}

func envelopeFixture(t *testing.T, km cryptoService.KeyManager, ownerID, plaintext string) *vaultDomain.VaultEntry {
	t.Helper()

	entry := legacyFixture(t, km, ownerID, plaintext)
	payload, err := km.EnvelopeEncrypt([]byte(plaintext))
	require.NoError(t, err)
	require.NoError(t, entry.SetPayload(payload))
	return entry
}

func auditEvent(
	eventType auditDomain.EventType,
	action string,
	success bool,
	errorMessage string,
) any {
	return mock.MatchedBy(func(input *auditDomain.RecordInput) bool {
		return input.EventType == eventType &&
			input.Action == action &&
			input.Success == success &&
			input.ErrorMessage == errorMessage &&
			input.ActorType == auditDomain.ActorUser
	})
}

func TestEntryUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)

		repo.On("Create", ctx, decryptsTo(t, km, sensitiveDoc)).Return(nil).Once()
		auditUC.On("RecordWith", ctx, auditEvent(auditDomain.EventDataCreated, "create_entry", true, "")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		entry, err := uc.Create(ctx, &vaultDomain.CreateEntryInput{OwnerID: "user-1", Data: []byte(sensitiveDoc)})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.Equal(t, "user-1", entry.OwnerID)
		assert.Equal(t, sensitiveDoc, string(entry.Data))
		assert.Equal(t, cryptoDomain.EncryptionV2, entry.EncryptionVersion)
		assert.Equal(t, entry.CreatedAt, entry.UpdatedAt)
		repo.AssertExpectations(t)
		auditUC.AssertExpectations(t)
	})

	t.Run("Success_CiphertextHidesPlaintext", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)

		var stored *vaultDomain.VaultEntry
		repo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			stored = args.Get(1).(*vaultDomain.VaultEntry)
		}).Return(nil)
		auditUC.On("RecordWith", ctx, mock.Anything).Return(&auditDomain.AuditEvent{}, nil)

		_, err := uc.Create(ctx, &vaultDomain.CreateEntryInput{OwnerID: "user-1", Data: []byte(sensitiveDoc)})
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.NotContains(t, stored.EncryptedData, "123-45-6789")
		assert.NotContains(t, *stored.EncryptedDEK, "123-45-6789")
	})

	t.Run("Error_InvalidInput", func(t *testing.T) {
		uc, repo, auditUC := newEntryUseCaseWithMocks(newKeyManager(t))

		for _, input := range []*vaultDomain.CreateEntryInput{
			nil,
			{OwnerID: "", Data: []byte(`{}`)},
			{OwnerID: "user-1", Data: []byte(`not json`)},
		} {
			_, err := uc.Create(ctx, input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		}
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		auditUC.AssertNotCalled(t, "RecordWith", mock.Anything, mock.Anything)
	})

	t.Run("Error_RepositoryRecordsFailure", func(t *testing.T) {
		uc, repo, auditUC := newEntryUseCaseWithMocks(newKeyManager(t))

		repo.On("Create", ctx, mock.Anything).Return(assert.AnError)
		auditUC.On("Record", mock.Anything, auditEvent(auditDomain.EventDataCreated, "create_entry", false, "internal error")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		_, err := uc.Create(ctx, &vaultDomain.CreateEntryInput{OwnerID: "user-1", Data: []byte(sensitiveDoc)})
		assert.ErrorIs(t, err, assert.AnError)
		auditUC.AssertExpectations(t)
	})
}

func TestEntryUseCase_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_V2", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)
		stored := envelopeFixture(t, km, "user-1", sensitiveDoc)

		repo.On("FindByID", ctx, stored.ID).Return(stored, nil)
		auditUC.On("Record", ctx, auditEvent(auditDomain.EventDataAccessed, "read_entry", true, "")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		entry, err := uc.Get(ctx, stored.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, sensitiveDoc, string(entry.Data))
		assert.Equal(t, cryptoDomain.EncryptionV2, entry.EncryptionVersion)
		auditUC.AssertExpectations(t)
	})

	t.Run("Success_V1BackwardCompatible", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)
		stored := legacyFixture(t, km, "user-1", sensitiveDoc)

		repo.On("FindByID", ctx, stored.ID).Return(stored, nil)
		auditUC.On("Record", ctx, mock.Anything).Return(&auditDomain.AuditEvent{}, nil)

		entry, err := uc.Get(ctx, stored.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, sensitiveDoc, string(entry.Data))
		assert.Equal(t, cryptoDomain.EncryptionV1, entry.EncryptionVersion)
	})

	t.Run("Error_OtherOwnerIsNotFound", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)
		stored := envelopeFixture(t, km, "user-1", sensitiveDoc)

		repo.On("FindByID", ctx, stored.ID).Return(stored, nil)
		auditUC.On("Record", mock.Anything, auditEvent(auditDomain.EventDataAccessed, "read_entry", false, "entry not found")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		_, err := uc.Get(ctx, stored.ID, "user-2")
		assert.ErrorIs(t, err, vaultDomain.ErrVaultEntryNotFound)
		auditUC.AssertExpectations(t)
	})

	t.Run("Error_TamperedIsDataUnavailable", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)
		stored := envelopeFixture(t, km, "user-1", sensitiveDoc)
		flipped := []byte(stored.EncryptedData)
		if flipped[0] == 'a' {
			flipped[0] = 'b'
		} else {
			flipped[0] = 'a'
		}
		stored.EncryptedData = string(flipped)

		repo.On("FindByID", ctx, stored.ID).Return(stored, nil)
		auditUC.On("Record", mock.Anything, auditEvent(auditDomain.EventDataAccessed, "read_entry", false, "data unavailable")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		_, err := uc.Get(ctx, stored.ID, "user-1")
		assert.ErrorIs(t, err, vaultDomain.ErrDataUnavailable)
		assert.NotErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed)
		auditUC.AssertExpectations(t)
	})

	t.Run("Error_WrongKEKIsDataUnavailable", func(t *testing.T) {
		uc, repo, auditUC := newEntryUseCaseWithMocks(newKeyManager(t))
		stored := envelopeFixture(t, newKeyManager(t), "user-1", sensitiveDoc)

		repo.On("FindByID", ctx, stored.ID).Return(stored, nil)
		auditUC.On("Record", mock.Anything, mock.Anything).Return(&auditDomain.AuditEvent{}, nil)

		_, err := uc.Get(ctx, stored.ID, "user-1")
		assert.ErrorIs(t, err, vaultDomain.ErrDataUnavailable)
	})

	t.Run("Error_MalformedIsDataUnavailable", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)
		stored := envelopeFixture(t, km, "user-1", sensitiveDoc)
		stored.KeyIV = nil

		repo.On("FindByID", ctx, stored.ID).Return(stored, nil)
		auditUC.On("Record", mock.Anything, mock.Anything).Return(&auditDomain.AuditEvent{}, nil)

		_, err := uc.Get(ctx, stored.ID, "user-1")
		assert.ErrorIs(t, err, vaultDomain.ErrDataUnavailable)
	})

	t.Run("Error_AuditFailureDeniesRead", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)
		stored := envelopeFixture(t, km, "user-1", sensitiveDoc)

		repo.On("FindByID", ctx, stored.ID).Return(stored, nil)
		auditUC.On("Record", ctx, mock.Anything).Return(nil, assert.AnError)

		entry, err := uc.Get(ctx, stored.ID, "user-1")
		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, entry)
	})

	t.Run("Error_FailureAuditErrorKeepsOriginal", func(t *testing.T) {
		uc, repo, auditUC := newEntryUseCaseWithMocks(newKeyManager(t))
		id := uuid.New()

		repo.On("FindByID", ctx, id).Return(nil, vaultDomain.ErrVaultEntryNotFound)
		auditUC.On("Record", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		_, err := uc.Get(ctx, id, "user-1")
		assert.ErrorIs(t, err, vaultDomain.ErrVaultEntryNotFound)
		assert.NotErrorIs(t, err, assert.AnError)
	})
}

func TestEntryUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_UpgradesV1", func(t *testing.T) {
		km := newKeyManager(t)
		uc, repo, auditUC := newEntryUseCaseWithMocks(km)
		stored := legacyFixture(t, km, "user-1", `{"old":true}`)

		repo.On("FindByID", ctx, stored.ID).Return(stored, nil)
		repo.On("Update", ctx, decryptsTo(t, km, `{"new":true}`)).Return(nil).Once()
		auditUC.On("RecordWith", ctx, auditEvent(auditDomain.EventDataUpdated, "update_entry", true, "")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		entry, err := uc.Update(ctx, &vaultDomain.UpdateEntryInput{
			ID: stored.ID, OwnerID: "user-1", Data: []byte(`{"new":true}`),
		})
		require.NoError(t, err)
		assert.Equal(t, `{"new":true}`, string(entry.Data))
		assert.Equal(t, cryptoDomain.EncryptionV2, entry.EncryptionVersion)
		assert.Equal(t, sampleTime, entry.CreatedAt)
		assert.True(t, entry.UpdatedAt.After(entry.CreatedAt))
		repo.AssertExpectations(t)
		auditUC.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		uc, repo, auditUC := newEntryUseCaseWithMocks(newKeyManager(t))
		id := uuid.New()

		repo.On("FindByID", ctx, id).Return(nil, vaultDomain.ErrVaultEntryNotFound)
		auditUC.On("Record", mock.Anything, auditEvent(auditDomain.EventDataUpdated, "update_entry", false, "entry not found")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		_, err := uc.Update(ctx, &vaultDomain.UpdateEntryInput{ID: id, OwnerID: "user-1", Data: []byte(`{}`)})
		assert.ErrorIs(t, err, vaultDomain.ErrVaultEntryNotFound)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		auditUC.AssertExpectations(t)
	})

	t.Run("Error_InvalidInput", func(t *testing.T) {
		uc, repo, _ := newEntryUseCaseWithMocks(newKeyManager(t))

		_, err := uc.Update(ctx, &vaultDomain.UpdateEntryInput{OwnerID: "user-1", Data: []byte(`{}`)})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestEntryUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		uc, repo, auditUC := newEntryUseCaseWithMocks(newKeyManager(t))

		repo.On("Delete", ctx, id, "user-1").Return(nil).Once()
		auditUC.On("RecordWith", ctx, auditEvent(auditDomain.EventDataDeleted, "delete_entry", true, "")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		require.NoError(t, uc.Delete(ctx, id, "user-1"))
		repo.AssertExpectations(t)
		auditUC.AssertExpectations(t)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		uc, repo, auditUC := newEntryUseCaseWithMocks(newKeyManager(t))

		repo.On("Delete", ctx, id, "user-2").Return(vaultDomain.ErrVaultEntryNotFound)
		auditUC.On("Record", mock.Anything, auditEvent(auditDomain.EventDataDeleted, "delete_entry", false, "entry not found")).
			Return(&auditDomain.AuditEvent{}, nil).Once()

		assert.ErrorIs(t, uc.Delete(ctx, id, "user-2"), vaultDomain.ErrVaultEntryNotFound)
		auditUC.AssertExpectations(t)
	})
}
