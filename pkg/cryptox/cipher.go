package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// MasterKeyEnv is consulted when no key file is configured.
const MasterKeyEnv = "CONNECT_MASTER_KEY"

const (
	envelopeVersion = "v1."
	hkdfInfo        = "bartab-connect/token-cipher/v1"
)

// ErrDecryption is returned for any ciphertext that cannot be authenticated:
// corrupted, truncated, produced under another key, or not an envelope at all.
var ErrDecryption = errors.New("cryptox: decryption failed")

// Cipher seals provider secrets with AES-256-GCM before they reach storage.
// The empty string is its own ciphertext so "no refresh token" survives a
// round trip without touching the AEAD.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 32-byte AES key from arbitrary key material using
// HKDF-SHA256.
func NewCipher(material []byte) (*Cipher, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty key material")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("cryptox: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	return &Cipher{aead: gcm}, nil
}

// Encrypt returns "v1." + base64url([nonce][ciphertext][tag]).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return envelopeVersion + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	body, ok := strings.CutPrefix(ciphertext, envelopeVersion)
	if !ok {
		return "", ErrDecryption
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", ErrDecryption
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", ErrDecryption
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}

// LoadMasterKey reads key material from path when set, otherwise from
// CONNECT_MASTER_KEY. With neither available it returns a random key and
// ephemeral=true; tokens sealed with it will not survive a restart.
func LoadMasterKey(path string) (material []byte, ephemeral bool, err error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("cryptox: read master key file: %w", err)
		}
		data = []byte(strings.TrimSpace(string(data)))
		if len(data) == 0 {
			return nil, false, errors.New("cryptox: master key file is empty")
		}
		return data, false, nil
	}

	if v := os.Getenv(MasterKeyEnv); v != "" {
		return []byte(v), false, nil
	}

	material = make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return nil, false, fmt.Errorf("cryptox: generate ephemeral master key: %w", err)
	}
	return material, true, nil
}
