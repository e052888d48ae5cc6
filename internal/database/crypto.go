package database

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

// tokenCipher seals OAuth tokens with AES-256-GCM. The nonce is prepended
// to the ciphertext.
type tokenCipher struct {
	gcm cipher.AEAD
}

func newTokenCipher(keyMaterial string) (*tokenCipher, error) {
	if keyMaterial == "" {
		return nil, errors.New("no encryption key available: set TELCAL_ENCRYPTION_KEY")
	}

	key := sha256.Sum256([]byte(keyMaterial))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &tokenCipher{gcm: gcm}, nil
}

func (c *tokenCipher) encrypt(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, nil
	}

	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return c.gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

func (c *tokenCipher) decrypt(ciphertext []byte) (string, error) {
	if len(ciphertext) == 0 {
		return "", nil
	}

	nonceSize := c.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
