// Package domain defines the cryptographic domain model for envelope encryption.
//
// Hierarchy: KEK → DEK → data. The KEK is loaded once per process from
// configuration (optionally unwrapped by a KMS) and never leaves memory. Each
// record gets its own randomly generated DEK, which is stored only in
// KEK-encrypted form.
package domain

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
)

// KMSKeeper unwraps key material held by an external key management service.
// *gocloud.dev/secrets.Keeper satisfies it.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KeeperOpener opens a KMSKeeper for a key URI.
type KeeperOpener interface {
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}

// KEKConfig carries the raw configuration values the KEK is built from.
type KEKConfig struct {
	// Encoded is the base64 value of ENCRYPTION_KEK. When KMSKeyURI is empty it
	// decodes to the 32-byte KEK; otherwise it decodes to KMS ciphertext.
	Encoded string
	// KMSKeyURI is an optional gocloud.dev secrets URI used to unwrap Encoded.
	KMSKeyURI string
}

// LoadKEK builds the 32-byte KEK from cfg. Any failure is an ErrConfiguration:
// the process should refuse to serve traffic.
func LoadKEK(ctx context.Context, cfg KEKConfig, opener KeeperOpener, logger *slog.Logger) ([]byte, error) {
	encoded := strings.TrimSpace(cfg.Encoded)
	if encoded == "" {
		return nil, ErrKEKNotSet
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKEKBase64, err)
	}

	if cfg.KMSKeyURI != "" {
		if opener == nil {
			Zero(raw)
			return nil, fmt.Errorf("%w: no KMS service available", ErrKMSUnwrapFailed)
		}

		unwrapped, err := unwrapWithKMS(ctx, cfg.KMSKeyURI, raw, opener)
		Zero(raw)
		if err != nil {
			return nil, err
		}
		raw = unwrapped

		if logger != nil {
			logger.Info("KEK unwrapped with KMS", slog.String("kms_provider", kmsScheme(cfg.KMSKeyURI)))
		}
	}

	if len(raw) != KeySize {
		n := len(raw)
		Zero(raw)
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKEKSize, n)
	}

	return raw, nil
}

func unwrapWithKMS(ctx context.Context, keyURI string, ciphertext []byte, opener KeeperOpener) ([]byte, error) {
	keeper, err := opener.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKMSUnwrapFailed, err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKMSUnwrapFailed, err)
	}
	return plaintext, nil
}

// kmsScheme returns the URI scheme, which names the provider without leaking key paths.
func kmsScheme(keyURI string) string {
	scheme, _, found := strings.Cut(keyURI, "://")
	if !found {
		return "unknown"
	}
	return scheme
}
