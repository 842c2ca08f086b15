// Package service provides password hashing for password-like secrets handled
// outside the external identity provider.
package service

// PasswordService hashes and verifies passwords.
type PasswordService interface {
	// HashPassword hashes password with Argon2id and returns "saltHex:hashHex".
	// A random 16-byte salt is generated when salt is empty.
	HashPassword(password string, salt []byte) (string, error)

	// HashPasswordPHC hashes password into the PHC string format.
	HashPasswordPHC(password string) (string, error)

	// VerifyPassword checks password against a value produced by HashPassword
	// or HashPasswordPHC. The hash comparison is constant-time.
	VerifyPassword(password, stored string) bool
}
