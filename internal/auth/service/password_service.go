package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/allisson/go-pwdhash"
	"golang.org/x/crypto/argon2"

	apperrors "github.com/allisson/datavault/internal/errors"
)

// Argon2id parameters for the "saltHex:hashHex" format (RFC 9106, second
// recommended option).
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	// SaltSize is the size in bytes of generated salts.
	SaltSize = 16

	phcPrefix = "$argon2id$"
)

// passwordService implements PasswordService.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// HashPassword returns "saltHex:hashHex". A random salt is generated when salt is empty.
func (p *passwordService) HashPassword(password string, salt []byte) (string, error) {
	if len(salt) == 0 {
		salt = make([]byte, SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return "", apperrors.Wrap(err, "failed to generate salt")
		}
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(hash), nil
}

// HashPasswordPHC returns a PHC-formatted Argon2id hash ("$argon2id$...").
func (p *passwordService) HashPasswordPHC(password string) (string, error) {
	hashed, err := p.hasher.Hash([]byte(password))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hashed, nil
}

// VerifyPassword reports whether password matches stored. Malformed stored
// values never match.
func (p *passwordService) VerifyPassword(password, stored string) bool {
	if strings.HasPrefix(stored, phcPrefix) {
		ok, err := p.hasher.Verify([]byte(password), stored)
		return err == nil && ok
	}

	saltHex, hashHex, found := strings.Cut(stored, ":")
	if !found || strings.Contains(hashHex, ":") {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false
	}
	expected, err := hex.DecodeString(hashHex)
	if err != nil || len(expected) != argonKeyLen {
		return false
	}

	actual := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

// NewPasswordService creates a new PasswordService. PHC hashes use the
// Moderate policy.
func NewPasswordService() PasswordService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &passwordService{
		hasher: hasher,
	}
}
