// Package service provides the cryptographic services of the data-protection core:
// the AES-256-GCM primitive, envelope key management and KMS access.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
)

// Cipher is an authenticated symmetric cipher with detached IV and tag.
type Cipher interface {
	// Encrypt seals plaintext under a 32-byte key with a fresh IV.
	Encrypt(plaintext, key []byte) (*cryptoDomain.Sealed, error)

	// Decrypt opens ciphertext. Returns ErrAuthenticationFailed if the tag does not verify.
	Decrypt(ciphertext, key, iv, authTag []byte) ([]byte, error)
}

// KeyManager performs envelope encryption under the process KEK.
type KeyManager interface {
	// EnvelopeEncrypt seals plaintext under a fresh DEK and seals the DEK under the KEK.
	EnvelopeEncrypt(plaintext []byte) (*cryptoDomain.EnvelopePayload, error)

	// EnvelopeDecrypt recovers the DEK with the KEK and opens the payload with it.
	// Returns ErrKeyMismatch when the unwrapped DEK is not a well-formed key.
	EnvelopeDecrypt(payload *cryptoDomain.EnvelopePayload) ([]byte, error)

	// LegacyEncrypt seals plaintext directly under the KEK (v1 format).
	LegacyEncrypt(plaintext []byte) (*cryptoDomain.EncryptedPayload, error)

	// LegacyDecrypt opens a v1 payload directly with the KEK.
	LegacyDecrypt(payload *cryptoDomain.EncryptedPayload) ([]byte, error)

	// Decrypt dispatches on the payload version.
	Decrypt(payload cryptoDomain.Payload) ([]byte, error)

	// MigrateToEnvelopeEncryption converts a v1 payload to v2. Either a complete
	// envelope is returned or an error, never a partial result.
	MigrateToEnvelopeEncryption(payload *cryptoDomain.EncryptedPayload) (*cryptoDomain.EnvelopePayload, error)

	// VerifyKEK reports whether the KEK opens payload. Never returns an error.
	VerifyKEK(payload *cryptoDomain.EncryptedPayload) bool
}

// KMSService opens KMS keepers used to unwrap the KEK.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
