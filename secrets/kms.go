// Package secrets decrypts credentials stored as KMS ciphertext in the environment.
package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/aws/smithy-go"

	"github.com/ideamans/go-sheetsync"
	"github.com/ideamans/go-sheetsync/logging"
)

// DecryptAPI is the part of the KMS client used by Decrypter
type DecryptAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// Decrypter turns base64 KMS ciphertext into plaintext
type Decrypter struct {
	client            DecryptAPI
	encryptionContext map[string]string
	logger            *slog.Logger
}

// NewDecrypter creates a decrypter. encryptionContext may be nil.
func NewDecrypter(client DecryptAPI, encryptionContext map[string]string, logger *slog.Logger) *Decrypter {
	return &Decrypter{
		client:            client,
		encryptionContext: encryptionContext,
		logger:            logging.Named(logger, "sheetsync.secrets"),
	}
}

// DecryptString decodes the base64 ciphertext and decrypts it
func (d *Decrypter) DecryptString(ctx context.Context, ciphertext string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return "", fmt.Errorf("%w: credential is not valid base64: %w", sheetsync.ErrInvalidArgument, err)
	}
	if len(blob) == 0 {
		return "", fmt.Errorf("%w: credential is empty", sheetsync.ErrInvalidArgument)
	}

	out, err := d.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob:    blob,
		EncryptionContext: d.encryptionContext,
	})
	if err != nil {
		d.logger.Error("Credential decryption failed", "error", err)
		return "", classify(err)
	}

	d.logger.Debug("Decrypted credential", "key", keyID(out))
	return string(out.Plaintext), nil
}

func keyID(out *kms.DecryptOutput) string {
	if out.KeyId == nil {
		return ""
	}
	return *out.KeyId
}

// classify maps a KMS failure onto the sheetsync error kinds. A ciphertext
// KMS cannot use is a configuration problem; a denied caller is an
// authentication failure; everything else is upstream.
func classify(err error) error {
	var (
		invalidCiphertext *types.InvalidCiphertextException
		incorrectKey      *types.IncorrectKeyException
		apiErr            smithy.APIError
	)
	switch {
	case errors.As(err, &invalidCiphertext), errors.As(err, &incorrectKey):
		return fmt.Errorf("%w: decrypt credential: %w", sheetsync.ErrInvalidArgument, err)
	case errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDeniedException":
		return fmt.Errorf("%w: decrypt credential: %w", sheetsync.ErrAuthentication, err)
	}
	return fmt.Errorf("%w: decrypt credential: %w", sheetsync.ErrUpstream, err)
}
