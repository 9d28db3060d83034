package encryption

import (
	"fmt"

	"horas/internal/config"
)

// NewCipherFromConfig creates a Cipher based on the configuration type.
func NewCipherFromConfig(cfg config.EncryptionConfig) (Cipher, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeCipher(cfg), nil
	case "test":
		return NewTestCipher(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
