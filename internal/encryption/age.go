package encryption

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"horas/internal/config"
)

// AgeCipher implements Cipher using filippo.io/age with X25519 keys.
// The public key is stored in plaintext; the private key is encrypted with
// the user's passphrase using age's scrypt-based passphrase encryption.
// Tokens are age-encrypted and base64-encoded for storage.
type AgeCipher struct {
	publicKeyPath  string
	privateKeyPath string
}

var _ Cipher = (*AgeCipher)(nil)

// NewAgeCipher creates a new AgeCipher from configuration.
func NewAgeCipher(cfg config.EncryptionConfig) *AgeCipher {
	return &AgeCipher{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
	}
}

// Setup generates a new X25519 key pair, stores the public key in plaintext,
// and encrypts the private key with the passphrase.
func (c *AgeCipher) Setup(passphrase string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.publicKeyPath), 0700); err != nil {
		return fmt.Errorf("creating public key directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.privateKeyPath), 0700); err != nil {
		return fmt.Errorf("creating private key directory: %w", err)
	}

	if err := os.WriteFile(c.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}

	privFile, err := os.OpenFile(c.privateKeyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating private key file: %w", err)
	}
	defer privFile.Close()

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	w, err := age.Encrypt(privFile, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return fmt.Errorf("writing encrypted private key: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted private key: %w", err)
	}

	return nil
}

// EncryptToken encrypts a token with the stored public key and returns it
// base64-encoded.
func (c *AgeCipher) EncryptToken(plain string) (string, error) {
	recipient, err := c.loadRecipient()
	if err != nil {
		return "", fmt.Errorf("loading public key: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, plain); err != nil {
		return "", fmt.Errorf("encrypting token: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Unlock decrypts the private key using the passphrase and returns a
// session decrypter holding the unlocked identity.
func (c *AgeCipher) Unlock(passphrase string) (Decrypter, error) {
	privData, err := os.ReadFile(c.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(bytes.NewReader(privData), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting private key: %w", err)
	}

	keyData, err := io.ReadAll(decReader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted private key: %w", err)
	}

	identities, err := age.ParseIdentities(bytes.NewReader(keyData))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in private key")
	}

	return &AgeDecrypter{identity: identities[0]}, nil
}

// IsConfigured returns true if both key files exist.
func (c *AgeCipher) IsConfigured() bool {
	if _, err := os.Stat(c.publicKeyPath); err != nil {
		return false
	}
	if _, err := os.Stat(c.privateKeyPath); err != nil {
		return false
	}
	return true
}

func (c *AgeCipher) loadRecipient() (age.Recipient, error) {
	pubData, err := os.ReadFile(c.publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(pubData))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}

	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in public key file")
	}

	return recipients[0], nil
}

// AgeDecrypter holds an unlocked age identity for decrypting tokens.
type AgeDecrypter struct {
	identity age.Identity
}

var _ Decrypter = (*AgeDecrypter)(nil)

// DecryptToken reverses EncryptToken.
func (d *AgeDecrypter) DecryptToken(encrypted string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("decoding token: %w", err)
	}

	decReader, err := age.Decrypt(bytes.NewReader(raw), d.identity)
	if err != nil {
		return "", fmt.Errorf("creating decrypted reader: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, decReader); err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}

	return sb.String(), nil
}
