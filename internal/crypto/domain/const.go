package domain

const (
	// KeySize is the size in bytes of every symmetric key (KEK and DEK): AES-256.
	KeySize = 32

	// IVSize is the size in bytes of the GCM nonce. Legacy records were written
	// with 16-byte IVs, so the cipher is built with a non-default nonce size.
	IVSize = 16

	// AuthTagSize is the size in bytes of the GCM authentication tag.
	AuthTagSize = 16
)

// EncryptionVersion tags the scheme a stored payload was written with.
type EncryptionVersion string

const (
	// EncryptionV1 is direct AES-256-GCM under the KEK (legacy).
	EncryptionV1 EncryptionVersion = "v1"

	// EncryptionV2 is envelope encryption: data under a per-record DEK, DEK under the KEK.
	EncryptionV2 EncryptionVersion = "v2"
)

// Valid reports whether v is a known encryption version.
func (v EncryptionVersion) Valid() bool {
	return v == EncryptionV1 || v == EncryptionV2
}
