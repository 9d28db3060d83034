package encryption

import (
	"fmt"
	"strings"
)

// testPrefix is prepended to tokens by TestCipher to make encrypted output
// clearly different from plaintext while remaining deterministic and
// reversible.
const testPrefix = "HORASENC:"

// TestCipher is a simple, deterministic cipher for testing. It prepends a
// fixed prefix during encryption and strips it during decryption, requiring
// no crypto and no key files.
type TestCipher struct {
	setupCalled bool
}

var _ Cipher = (*TestCipher)(nil)

// NewTestCipher creates a new TestCipher.
func NewTestCipher() *TestCipher {
	return &TestCipher{}
}

func (c *TestCipher) Setup(passphrase string) error {
	c.setupCalled = true
	return nil
}

func (c *TestCipher) EncryptToken(plain string) (string, error) {
	return testPrefix + plain, nil
}

func (c *TestCipher) Unlock(passphrase string) (Decrypter, error) {
	return &TestDecrypter{}, nil
}

func (c *TestCipher) IsConfigured() bool {
	return true
}

// TestDecrypter strips the prefix added by TestCipher.
type TestDecrypter struct{}

var _ Decrypter = (*TestDecrypter)(nil)

func (d *TestDecrypter) DecryptToken(encrypted string) (string, error) {
	if !strings.HasPrefix(encrypted, testPrefix) {
		return "", fmt.Errorf("invalid test encryption prefix")
	}
	return strings.TrimPrefix(encrypted, testPrefix), nil
}
