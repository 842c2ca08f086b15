package app

import (
	"context"
	"fmt"

	authService "github.com/allisson/datavault/internal/auth/service"
	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	cryptoService "github.com/allisson/datavault/internal/crypto/service"
)

type cryptoDeps struct {
	kmsService      lazy[cryptoService.KMSService]
	keyManager      lazy[*cryptoService.KeyManagerService]
	passwordService lazy[authService.PasswordService]
}

// KMSService returns the gocloud.dev backed KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	svc, _ := c.kmsService.get(func() (cryptoService.KMSService, error) {
		return cryptoService.NewKMSService(), nil
	})
	return svc
}

// KeyManager returns the key manager built from ENCRYPTION_KEK, unwrapped with
// KMS_KEY_URI when set. The KEK is zeroed on Shutdown.
func (c *Container) KeyManager() (*cryptoService.KeyManagerService, error) {
	return c.keyManager.get(func() (*cryptoService.KeyManagerService, error) {
		kek, err := cryptoDomain.LoadKEK(
			context.Background(),
			cryptoDomain.KEKConfig{
				Encoded:   c.config.EncryptionKEK,
				KMSKeyURI: c.config.KMSKeyURI,
			},
			c.KMSService(),
			c.Logger(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load KEK: %w", err)
		}
		defer cryptoDomain.Zero(kek)

		km, err := cryptoService.NewKeyManager(kek, cryptoService.NewAESGCMCipher())
		if err != nil {
			return nil, fmt.Errorf("failed to create key manager: %w", err)
		}
		c.onShutdown("key manager", func(context.Context) error {
			km.Close()
			return nil
		})
		return km, nil
	})
}

// PasswordService returns the Argon2id password hasher.
func (c *Container) PasswordService() authService.PasswordService {
	svc, _ := c.passwordService.get(func() (authService.PasswordService, error) {
		return authService.NewPasswordService(), nil
	})
	return svc
}
