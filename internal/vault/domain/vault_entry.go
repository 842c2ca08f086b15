// Package domain defines vault entries, their persisted encryption fields and
// the migration result types.
package domain

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	customValidation "github.com/allisson/datavault/internal/validation"
)

// VaultEntry is a stored vault record. The encryption fields keep their
// persisted shape: hex ciphertext and "ivHex:tagHex" composites. EncryptedDEK
// and KeyIV are set only for v2 entries. Use Payload to obtain the typed form.
type VaultEntry struct {
	ID                uuid.UUID
	OwnerID           string
	EncryptedData     string
	IV                string
	EncryptedDEK      *string
	KeyIV             *string
	EncryptionVersion cryptoDomain.EncryptionVersion
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Payload converts the persisted fields into the payload type selected by the
// version tag. Returns ErrMalformedRecord if the fields do not match the tag
// or do not parse.
func (e *VaultEntry) Payload() (cryptoDomain.Payload, error) {
	ciphertext, err := hex.DecodeString(e.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypted data is not hex", ErrMalformedRecord)
	}

	iv, authTag, err := cryptoDomain.ParseIVTag(e.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: iv: %v", ErrMalformedRecord, err)
	}

	switch e.EncryptionVersion {
	case cryptoDomain.EncryptionV1:
		if e.EncryptedDEK != nil || e.KeyIV != nil {
			return nil, fmt.Errorf("%w: v1 entry carries DEK fields", ErrMalformedRecord)
		}
		return &cryptoDomain.EncryptedPayload{
			Ciphertext: ciphertext,
			IV:         iv,
			AuthTag:    authTag,
		}, nil

	case cryptoDomain.EncryptionV2:
		if e.EncryptedDEK == nil || e.KeyIV == nil {
			return nil, fmt.Errorf("%w: v2 entry is missing DEK fields", ErrMalformedRecord)
		}
		encryptedDEK, err := hex.DecodeString(*e.EncryptedDEK)
		if err != nil {
			return nil, fmt.Errorf("%w: encrypted DEK is not hex", ErrMalformedRecord)
		}
		dekIV, dekAuthTag, err := cryptoDomain.ParseIVTag(*e.KeyIV)
		if err != nil {
			return nil, fmt.Errorf("%w: key iv: %v", ErrMalformedRecord, err)
		}
		return &cryptoDomain.EnvelopePayload{
			Ciphertext:   ciphertext,
			DataIV:       iv,
			DataAuthTag:  authTag,
			EncryptedDEK: encryptedDEK,
			DEKIV:        dekIV,
			DEKAuthTag:   dekAuthTag,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown encryption version %q", ErrMalformedRecord, e.EncryptionVersion)
	}
}

// SetPayload replaces every encryption field and the version tag from payload,
// so the entry can never carry a tag that disagrees with its fields.
func (e *VaultEntry) SetPayload(payload cryptoDomain.Payload) error {
	switch p := payload.(type) {
	case *cryptoDomain.EncryptedPayload:
		e.EncryptedData = hex.EncodeToString(p.Ciphertext)
		e.IV = cryptoDomain.FormatIVTag(p.IV, p.AuthTag)
		e.EncryptedDEK = nil
		e.KeyIV = nil
	case *cryptoDomain.EnvelopePayload:
		encryptedDEK := hex.EncodeToString(p.EncryptedDEK)
		keyIV := cryptoDomain.FormatIVTag(p.DEKIV, p.DEKAuthTag)
		e.EncryptedData = hex.EncodeToString(p.Ciphertext)
		e.IV = cryptoDomain.FormatIVTag(p.DataIV, p.DataAuthTag)
		e.EncryptedDEK = &encryptedDEK
		e.KeyIV = &keyIV
	default:
		return cryptoDomain.ErrMalformedPayload
	}

	e.EncryptionVersion = payload.Version()
	return nil
}

// IsWellFormedV2 reports whether the entry is tagged v2 and both composite
// fields parse into a 16-byte IV and a 16-byte auth tag. It does not decrypt.
func (e *VaultEntry) IsWellFormedV2() bool {
	if e.EncryptionVersion != cryptoDomain.EncryptionV2 || e.KeyIV == nil || e.EncryptedDEK == nil {
		return false
	}
	if _, _, err := cryptoDomain.ParseIVTag(e.IV); err != nil {
		return false
	}
	if _, _, err := cryptoDomain.ParseIVTag(*e.KeyIV); err != nil {
		return false
	}
	return true
}

// CreateEntryInput contains the plaintext document for a new entry.
type CreateEntryInput struct {
	OwnerID string
	Data    []byte
}

// Validate checks that the owner is set and Data is a JSON object.
func (i *CreateEntryInput) Validate() error {
	err := validation.ValidateStruct(i,
		validation.Field(&i.OwnerID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.Data, validation.Required, customValidation.JSONObject),
	)
	return customValidation.WrapValidationError(err)
}

// UpdateEntryInput replaces the plaintext document of an existing entry.
type UpdateEntryInput struct {
	ID      uuid.UUID
	OwnerID string
	Data    []byte
}

// Validate checks the entry ID and owner are set and Data is a JSON object.
func (i *UpdateEntryInput) Validate() error {
	err := validation.ValidateStruct(i,
		validation.Field(&i.ID, validation.By(func(value interface{}) error {
			if value.(uuid.UUID) == uuid.Nil {
				return validation.NewError("validation_required", "cannot be blank")
			}
			return nil
		})),
		validation.Field(&i.OwnerID, validation.Required, customValidation.NotBlank),
		validation.Field(&i.Data, validation.Required, customValidation.JSONObject),
	)
	return customValidation.WrapValidationError(err)
}

// DecryptedEntry is an entry with its plaintext document.
type DecryptedEntry struct {
	ID                uuid.UUID
	OwnerID           string
	Data              []byte
	EncryptionVersion cryptoDomain.EncryptionVersion
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
