package domain

import (
	"github.com/allisson/datavault/internal/errors"
)

// Cryptographic error definitions.
//
// ErrAuthenticationFailed deliberately does not say whether the key was wrong or
// the data was tampered with. Callers outside the core must map it to a generic
// "data unavailable" response.
var (
	// ErrInvalidKeySize indicates a key that is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrAuthenticationFailed indicates the AEAD tag did not verify: wrong key,
	// wrong IV, corrupted ciphertext or tampered tag.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrIntegrity, "authentication failed")

	// ErrKeyMismatch indicates the encrypted DEK decrypted cleanly under the KEK
	// but did not yield a well-formed 32-byte key. Typically a v1 payload fed to
	// the v2 entry point.
	ErrKeyMismatch = errors.Wrap(ErrAuthenticationFailed, "key mismatch")

	// ErrConfiguration indicates the KEK configuration is absent or malformed.
	ErrConfiguration = errors.Wrap(errors.ErrMisconfigured, "invalid encryption configuration")

	// ErrKEKNotSet indicates ENCRYPTION_KEK is empty.
	ErrKEKNotSet = errors.Wrap(ErrConfiguration, "ENCRYPTION_KEK not set")

	// ErrInvalidKEKBase64 indicates ENCRYPTION_KEK is not valid base64.
	ErrInvalidKEKBase64 = errors.Wrap(ErrConfiguration, "invalid ENCRYPTION_KEK base64")

	// ErrInvalidKEKSize indicates the decoded KEK is not KeySize bytes.
	ErrInvalidKEKSize = errors.Wrap(ErrConfiguration, "ENCRYPTION_KEK must decode to 32 bytes")

	// ErrKMSUnwrapFailed indicates the KMS keeper could not unwrap the configured KEK.
	ErrKMSUnwrapFailed = errors.Wrap(ErrConfiguration, "failed to unwrap KEK with KMS")

	// ErrMalformedPayload indicates a persisted payload whose fields do not parse
	// into the shape its version tag requires.
	ErrMalformedPayload = errors.Wrap(errors.ErrIntegrity, "malformed encrypted payload")
)
