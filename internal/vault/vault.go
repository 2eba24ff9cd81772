// Package vault provides symmetric encryption for credential custody.
// Secrets are sealed with AES-256-GCM into self-contained string envelopes
// suitable for storage in a single database column.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const keySize = 32 // AES-256.

// ErrInvalidKeySize is returned by New when the key is not exactly 32 bytes.
// The key is never truncated or padded to fit.
var ErrInvalidKeySize = errors.New("encryption key must be exactly 32 bytes")

// ErrDecryptionFailed is returned by Decrypt for any malformed or tampered
// envelope: wrong part count, invalid encoding, bad nonce length, or an
// authentication tag that does not verify. Decryption fails closed; altered
// plaintext is never returned.
var ErrDecryptionFailed = errors.New("credential envelope decryption failed")

// Vault seals and opens credential envelopes with a fixed AES-256 key.
// It is a pure transform: no I/O, no logging.
type Vault struct {
	key []byte
}

// New creates a Vault. key must be exactly 32 bytes.
func New(key []byte) (*Vault, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidKeySize, len(key))
	}
	return &Vault{key: key}, nil
}

// Encrypt seals plaintext into an envelope of two colon-separated base64
// parts: the random 12-byte nonce, then the GCM output (ciphertext with the
// authentication tag appended).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	gcm, err := v.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(nonce) + ":" +
		base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Any corruption of the
// envelope, down to a single flipped bit, yields ErrDecryptionFailed.
func (v *Vault) Decrypt(envelope string) (string, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected 2 parts, got %d", ErrDecryptionFailed, len(parts))
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: nonce encoding", ErrDecryptionFailed)
	}
	sealed, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext encoding", ErrDecryptionFailed)
	}

	gcm, err := v.aead()
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce length", ErrDecryptionFailed)
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		// Covers both truncated ciphertext and tag verification failure.
		return "", fmt.Errorf("%w: authentication", ErrDecryptionFailed)
	}

	return string(plaintext), nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
