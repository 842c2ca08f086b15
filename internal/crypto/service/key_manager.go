package service

import (
	"encoding/hex"
	"errors"
	"fmt"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
)

// KeyManagerService implements KeyManager. The KEK is copied at construction and
// only read afterwards, so one instance is safe to share across goroutines.
// DEKs are generated per call and zeroed before the call returns.
type KeyManagerService struct {
	kek    []byte
	cipher Cipher
}

// NewKeyManager creates a KeyManagerService for kek. The slice is copied; the
// caller may zero its own copy afterwards.
func NewKeyManager(kek []byte, cipher Cipher) (*KeyManagerService, error) {
	if len(kek) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("%w: KEK must be %d bytes", cryptoDomain.ErrConfiguration, cryptoDomain.KeySize)
	}

	own := make([]byte, len(kek))
	copy(own, kek)

	return &KeyManagerService{
		kek:    own,
		cipher: cipher,
	}, nil
}

// EnvelopeEncrypt seals plaintext under a fresh DEK, then seals the DEK's hex
// serialization under the KEK.
func (km *KeyManagerService) EnvelopeEncrypt(plaintext []byte) (*cryptoDomain.EnvelopePayload, error) {
	dek, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate DEK: %w", err)
	}
	defer cryptoDomain.Zero(dek)

	data, err := km.cipher.Encrypt(plaintext, dek)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data: %w", err)
	}

	dekHex := []byte(hex.EncodeToString(dek))
	defer cryptoDomain.Zero(dekHex)

	wrapped, err := km.cipher.Encrypt(dekHex, km.kek)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt DEK: %w", err)
	}

	return &cryptoDomain.EnvelopePayload{
		Ciphertext:   data.Ciphertext,
		DataIV:       data.IV,
		DataAuthTag:  data.AuthTag,
		EncryptedDEK: wrapped.Ciphertext,
		DEKIV:        wrapped.IV,
		DEKAuthTag:   wrapped.AuthTag,
	}, nil
}

// EnvelopeDecrypt unwraps the DEK under the KEK and opens the data with it.
func (km *KeyManagerService) EnvelopeDecrypt(payload *cryptoDomain.EnvelopePayload) ([]byte, error) {
	if payload == nil {
		return nil, cryptoDomain.ErrMalformedPayload
	}

	dekHex, err := km.cipher.Decrypt(payload.EncryptedDEK, km.kek, payload.DEKIV, payload.DEKAuthTag)
	if err != nil {
		return nil, authFailure("failed to decrypt DEK", err)
	}
	defer cryptoDomain.Zero(dekHex)

	dek, err := parseDEK(dekHex)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	plaintext, err := km.cipher.Decrypt(payload.Ciphertext, dek, payload.DataIV, payload.DataAuthTag)
	if err != nil {
		return nil, authFailure("failed to decrypt data", err)
	}

	return plaintext, nil
}

// parseDEK turns the unwrapped hex serialization back into key bytes.
func parseDEK(dekHex []byte) ([]byte, error) {
	if len(dekHex) != hex.EncodedLen(cryptoDomain.KeySize) {
		return nil, fmt.Errorf("%w: unwrapped DEK has %d characters", cryptoDomain.ErrKeyMismatch, len(dekHex))
	}

	dek := make([]byte, cryptoDomain.KeySize)
	if _, err := hex.Decode(dek, dekHex); err != nil {
		cryptoDomain.Zero(dek)
		return nil, fmt.Errorf("%w: unwrapped DEK is not hex", cryptoDomain.ErrKeyMismatch)
	}

	return dek, nil
}

// LegacyEncrypt seals plaintext directly under the KEK.
func (km *KeyManagerService) LegacyEncrypt(plaintext []byte) (*cryptoDomain.EncryptedPayload, error) {
	sealed, err := km.cipher.Encrypt(plaintext, km.kek)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data: %w", err)
	}

	return &cryptoDomain.EncryptedPayload{
		Ciphertext: sealed.Ciphertext,
		IV:         sealed.IV,
		AuthTag:    sealed.AuthTag,
	}, nil
}

// LegacyDecrypt opens a v1 payload directly with the KEK.
func (km *KeyManagerService) LegacyDecrypt(payload *cryptoDomain.EncryptedPayload) ([]byte, error) {
	if payload == nil {
		return nil, cryptoDomain.ErrMalformedPayload
	}

	plaintext, err := km.cipher.Decrypt(payload.Ciphertext, km.kek, payload.IV, payload.AuthTag)
	if err != nil {
		return nil, authFailure("failed to decrypt legacy payload", err)
	}

	return plaintext, nil
}

// Decrypt opens payload with the path its version selects.
func (km *KeyManagerService) Decrypt(payload cryptoDomain.Payload) ([]byte, error) {
	switch p := payload.(type) {
	case *cryptoDomain.EncryptedPayload:
		return km.LegacyDecrypt(p)
	case *cryptoDomain.EnvelopePayload:
		return km.EnvelopeDecrypt(p)
	default:
		return nil, cryptoDomain.ErrMalformedPayload
	}
}

// MigrateToEnvelopeEncryption decrypts a v1 payload and re-encrypts it as v2.
// The intermediate plaintext is zeroed before returning.
func (km *KeyManagerService) MigrateToEnvelopeEncryption(
	payload *cryptoDomain.EncryptedPayload,
) (*cryptoDomain.EnvelopePayload, error) {
	plaintext, err := km.LegacyDecrypt(payload)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(plaintext)

	envelope, err := km.EnvelopeEncrypt(plaintext)
	if err != nil {
		return nil, err
	}

	return envelope, nil
}

// VerifyKEK reports whether the configured KEK opens payload. It is a sanity
// check for startup and rotation checks, not an authorization decision.
func (km *KeyManagerService) VerifyKEK(payload *cryptoDomain.EncryptedPayload) bool {
	plaintext, err := km.LegacyDecrypt(payload)
	if err != nil {
		return false
	}
	cryptoDomain.Zero(plaintext)
	return true
}

// Close zeroes the KEK. The service must not be used afterwards.
func (km *KeyManagerService) Close() {
	cryptoDomain.Zero(km.kek)
}

// authFailure keeps ErrAuthenticationFailed in the chain while leaving other
// errors (e.g. ErrInvalidKeySize) untouched.
func authFailure(message string, err error) error {
	if errors.Is(err, cryptoDomain.ErrAuthenticationFailed) {
		return fmt.Errorf("%s: %w", message, cryptoDomain.ErrAuthenticationFailed)
	}
	return fmt.Errorf("%s: %w", message, err)
}
