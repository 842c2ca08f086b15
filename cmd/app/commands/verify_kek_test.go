package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	cryptoService "github.com/allisson/datavault/internal/crypto/service"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
	vaultMocks "github.com/allisson/datavault/internal/vault/usecase/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newKeyManager(t *testing.T) *cryptoService.KeyManagerService {
	t.Helper()
	kek, err := cryptoService.GenerateKey()
	require.NoError(t, err)
	km, err := cryptoService.NewKeyManager(kek, cryptoService.NewAESGCMCipher())
	require.NoError(t, err)
	return km
}

func legacyEntry(t *testing.T, km *cryptoService.KeyManagerService) *vaultDomain.VaultEntry {
	t.Helper()
	payload, err := km.LegacyEncrypt([]byte(`{"name":"Ada"}`))
	require.NoError(t, err)

	entry := &vaultDomain.VaultEntry{ID: uuid.Must(uuid.NewV7()), OwnerID: "user-1"}
	require.NoError(t, entry.SetPayload(payload))
	return entry
}

// mismatchedKeyManager seals with one KEK and opens with another.
type mismatchedKeyManager struct {
	cryptoService.KeyManager
	sealer cryptoService.KeyManager
}

func (m *mismatchedKeyManager) LegacyEncrypt(plaintext []byte) (*cryptoDomain.EncryptedPayload, error) {
	return m.sealer.LegacyEncrypt(plaintext)
}

func TestRunVerifyKek(t *testing.T) {
	ctx := context.Background()
	km := newKeyManager(t)

	t.Run("all entries verify", func(t *testing.T) {
		repo := &vaultMocks.MockVaultEntryRepository{}
		entries := []*vaultDomain.VaultEntry{legacyEntry(t, km), legacyEntry(t, km)}
		repo.On("FindLegacyEntries", ctx, 10).Return(entries, nil).Once()

		var out bytes.Buffer
		err := RunVerifyKek(ctx, repo, km, discardLogger(), &out, 10, FormatText)

		require.NoError(t, err)
		assert.Contains(t, out.String(), "Verified:    2")
		assert.Contains(t, out.String(), "Status: PASSED")
		repo.AssertExpectations(t)
	})

	t.Run("entry under another KEK fails", func(t *testing.T) {
		repo := &vaultMocks.MockVaultEntryRepository{}
		foreign := legacyEntry(t, newKeyManager(t))
		entries := []*vaultDomain.VaultEntry{legacyEntry(t, km), foreign}
		repo.On("FindLegacyEntries", ctx, 5).Return(entries, nil).Once()

		var out bytes.Buffer
		err := RunVerifyKek(ctx, repo, km, discardLogger(), &out, 5, FormatJSON)

		require.ErrorContains(t, err, "1 of 2 entries")
		var report KEKReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &report))
		assert.Equal(t, 1, report.Verified)
		assert.Equal(t, []string{foreign.ID.String()}, report.FailedIDs)
		assert.True(t, report.SelfCheck)
	})

	t.Run("empty store still runs the self check", func(t *testing.T) {
		repo := &vaultMocks.MockVaultEntryRepository{}
		repo.On("FindLegacyEntries", ctx, 10).Return([]*vaultDomain.VaultEntry{}, nil).Once()

		var out bytes.Buffer
		require.NoError(t, RunVerifyKek(ctx, repo, km, discardLogger(), &out, 10, FormatText))
		assert.Contains(t, out.String(), "Self check:  true")
		assert.Contains(t, out.String(), "no v1 entries to verify")
	})

	t.Run("failed self check returns an error", func(t *testing.T) {
		repo := &vaultMocks.MockVaultEntryRepository{}
		repo.On("FindLegacyEntries", ctx, 10).Return([]*vaultDomain.VaultEntry{}, nil).Once()
		broken := &mismatchedKeyManager{KeyManager: km, sealer: newKeyManager(t)}

		var out bytes.Buffer
		err := RunVerifyKek(ctx, repo, broken, discardLogger(), &out, 10, FormatText)

		require.ErrorContains(t, err, "self check")
		assert.Contains(t, out.String(), "Self check:  false")
		assert.Contains(t, out.String(), "Status: FAILED (self check)")
	})

	t.Run("failed self check with verified entries still returns an error", func(t *testing.T) {
		repo := &vaultMocks.MockVaultEntryRepository{}
		entries := []*vaultDomain.VaultEntry{legacyEntry(t, km)}
		repo.On("FindLegacyEntries", ctx, 10).Return(entries, nil).Once()
		broken := &mismatchedKeyManager{KeyManager: km, sealer: newKeyManager(t)}

		var out bytes.Buffer
		err := RunVerifyKek(ctx, repo, broken, discardLogger(), &out, 10, FormatJSON)

		require.Error(t, err)
		var report KEKReport
		require.NoError(t, json.Unmarshal(out.Bytes(), &report))
		assert.False(t, report.SelfCheck)
		assert.Equal(t, 1, report.Verified)
		assert.Zero(t, report.Failed)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := &vaultMocks.MockVaultEntryRepository{}
		repo.On("FindLegacyEntries", ctx, 10).Return(nil, errors.New("connection reset")).Once()

		err := RunVerifyKek(ctx, repo, km, discardLogger(), &bytes.Buffer{}, 10, FormatText)
		assert.ErrorContains(t, err, "failed to load legacy entries")
	})

	t.Run("invalid sample", func(t *testing.T) {
		err := RunVerifyKek(ctx, nil, km, discardLogger(), &bytes.Buffer{}, 0, FormatText)
		assert.ErrorContains(t, err, "sample must be at least 1")
	})
}
