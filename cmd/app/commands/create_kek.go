package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	cryptoService "github.com/allisson/datavault/internal/crypto/service"
)

// RunCreateKek generates a random 32-byte KEK and prints it as ENCRYPTION_KEK.
// When kmsKeyURI is set the KEK is wrapped by that KMS key first, and the value
// printed is the base64 KMS ciphertext. The raw key is zeroed before returning.
func RunCreateKek(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	writer io.Writer,
	kmsKeyURI string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	kek, err := cryptoService.GenerateKey()
	if err != nil {
		return fmt.Errorf("failed to generate KEK: %w", err)
	}
	defer cryptoDomain.Zero(kek)

	encoded := kek
	if kmsKeyURI != "" {
		keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
		if err != nil {
			return err
		}
		defer func() {
			_ = keeper.Close()
		}()

		encoded, err = keeper.Encrypt(ctx, kek)
		if err != nil {
			return fmt.Errorf("failed to wrap KEK with KMS: %w", err)
		}
	}
	value := base64.StdEncoding.EncodeToString(encoded)

	if format == FormatJSON {
		return writeJSON(writer, map[string]string{
			"encryption_kek": value,
			"kms_key_uri":    kmsKeyURI,
		})
	}

	_, _ = fmt.Fprintln(writer, "# Copy these variables to your .env file or secrets manager")
	_, _ = fmt.Fprintf(writer, "ENCRYPTION_KEK=\"%s\"\n", value)
	if kmsKeyURI != "" {
		_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	}
	return nil
}
