package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
)

// PBKDF2Iterations is the work factor of DeriveKeyFromPassword.
const PBKDF2Iterations = 210_000

// AESGCMCipher implements Cipher with AES-256-GCM using 16-byte IVs and
// detached 16-byte authentication tags.
type AESGCMCipher struct{}

// NewAESGCMCipher creates a new AES-256-GCM cipher primitive.
func NewAESGCMCipher() *AESGCMCipher {
	return &AESGCMCipher{}
}

// GenerateKey returns KeySize cryptographically secure random bytes.
func GenerateKey() ([]byte, error) {
	return randomBytes(cryptoDomain.KeySize)
}

// GenerateIV returns IVSize cryptographically secure random bytes.
func GenerateIV() ([]byte, error) {
	return randomBytes(cryptoDomain.IVSize)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, cryptoDomain.IVSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return aead, nil
}

// Encrypt seals plaintext under key with a freshly generated IV. Two calls with
// the same inputs never return the same IV or ciphertext.
func (a *AESGCMCipher) Encrypt(plaintext, key []byte) (*cryptoDomain.Sealed, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv, err := GenerateIV()
	if err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - aead.Overhead()

	return &cryptoDomain.Sealed{
		Ciphertext: sealed[:split],
		IV:         iv,
		AuthTag:    sealed[split:],
	}, nil
}

// Decrypt opens ciphertext under key. Any verification failure, including an IV
// or tag of the wrong length, returns ErrAuthenticationFailed and no data.
func (a *AESGCMCipher) Decrypt(ciphertext, key, iv, authTag []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(iv) != cryptoDomain.IVSize || len(authTag) != cryptoDomain.AuthTagSize {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}

	sealed := make([]byte, 0, len(ciphertext)+len(authTag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, authTag...)

	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}

	// Open returns nil for an empty plaintext; callers expect a non-nil slice.
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// DeriveKeyFromPassword derives a KeySize key with PBKDF2-HMAC-SHA256. The result
// is deterministic for a (password, salt) pair. It is not meant for deriving the
// production KEK from a human secret.
func DeriveKeyFromPassword(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, PBKDF2Iterations, cryptoDomain.KeySize, sha256.New)
}
