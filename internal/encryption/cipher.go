package encryption

// Cipher encrypts provider tokens at rest. Encryption needs only the
// public key; decryption requires unlocking with the passphrase first.
type Cipher interface {
	// Setup generates and stores the key material, protecting the private
	// part with the passphrase.
	Setup(passphrase string) error
	// EncryptToken encrypts a plaintext token into a storable string.
	EncryptToken(plain string) (string, error)
	// Unlock verifies the passphrase and returns a session decrypter.
	Unlock(passphrase string) (Decrypter, error)
	// IsConfigured reports whether key material is in place.
	IsConfigured() bool
}

// Decrypter recovers plaintext tokens. Obtained from Cipher.Unlock and
// valid for the lifetime of the process.
type Decrypter interface {
	DecryptToken(encrypted string) (string, error)
}
