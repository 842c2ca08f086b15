package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Sealed is the output of one AEAD encryption: ciphertext, the IV it was sealed
// with and the detached authentication tag.
type Sealed struct {
	Ciphertext []byte
	IV         []byte
	AuthTag    []byte
}

// Payload is either *EncryptedPayload (v1) or *EnvelopePayload (v2). The version
// is a property of the concrete type, so a v2 tag can never travel with v1 fields.
type Payload interface {
	Version() EncryptionVersion
	isPayload()
}

// EncryptedPayload is a legacy (v1) payload encrypted directly under the KEK.
type EncryptedPayload struct {
	Ciphertext []byte
	IV         []byte
	AuthTag    []byte
}

// Version returns EncryptionV1.
func (*EncryptedPayload) Version() EncryptionVersion { return EncryptionV1 }

func (*EncryptedPayload) isPayload() {}

// EnvelopePayload is a v2 payload: Ciphertext is sealed under a per-record DEK
// and EncryptedDEK is the hex serialization of that DEK sealed under the KEK.
type EnvelopePayload struct {
	Ciphertext   []byte
	DataIV       []byte
	DataAuthTag  []byte
	EncryptedDEK []byte
	DEKIV        []byte
	DEKAuthTag   []byte
}

// Version returns EncryptionV2.
func (*EnvelopePayload) Version() EncryptionVersion { return EncryptionV2 }

func (*EnvelopePayload) isPayload() {}

// FormatIVTag encodes an IV and an auth tag into the persisted "ivHex:tagHex" form.
func FormatIVTag(iv, authTag []byte) string {
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(authTag)
}

// ParseIVTag decodes the persisted "ivHex:tagHex" form. Both components must be
// present, valid hex and exactly IVSize/AuthTagSize bytes.
func ParseIVTag(composite string) (iv, authTag []byte, err error) {
	parts := strings.Split(composite, ":")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("%w: expected iv:tag, got %d component(s)", ErrMalformedPayload, len(parts))
	}

	iv, err = hex.DecodeString(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: iv is not hex", ErrMalformedPayload)
	}
	authTag, err = hex.DecodeString(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: auth tag is not hex", ErrMalformedPayload)
	}

	if len(iv) != IVSize || len(authTag) != AuthTagSize {
		return nil, nil, fmt.Errorf(
			"%w: iv %d bytes, auth tag %d bytes",
			ErrMalformedPayload,
			len(iv),
			len(authTag),
		)
	}

	return iv, authTag, nil
}
