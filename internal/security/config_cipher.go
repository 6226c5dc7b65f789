package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	keySize = 32
	ivSize  = 16
	tagSize = 16
)

var (
	// ErrInvalidKey is returned when a configured key is not 32 bytes.
	ErrInvalidKey = errors.New("security: encryption key must be 32 bytes")
	// ErrMalformedCiphertext is returned when a stored value cannot be decrypted.
	ErrMalformedCiphertext = errors.New("security: malformed ciphertext")
)

// ConfigCipher encrypts configuration blobs for at-rest storage.
//
// With a key configured, values are encrypted with AES-256-GCM using a fresh
// random 16-byte IV per call and stored as base64(iv || authTag ||
// ciphertext), so encrypting the same input twice never yields the same
// output. Without a key the cipher operates in plaintext mode and returns the
// canonical JSON serialization verbatim; a deployment that requires
// encryption is expected to have rejected a missing key at an earlier
// startup check, so plaintext fallback is never fatal here.
type ConfigCipher struct {
	key []byte
}

// NewConfigCipher constructs a cipher. A nil or empty key selects plaintext
// mode; any other length than 32 bytes is rejected.
func NewConfigCipher(key []byte) (*ConfigCipher, error) {
	if len(key) == 0 {
		return &ConfigCipher{}, nil
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKey, len(key))
	}
	return &ConfigCipher{key: append([]byte(nil), key...)}, nil
}

// ParseKey decodes a 64-hex-character key string. An empty string is a valid,
// handled state and yields a nil key (plaintext mode).
func ParseKey(hexKey string) ([]byte, error) {
	trimmed := strings.TrimSpace(hexKey)
	if trimmed == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKey, len(key))
	}
	return key, nil
}

// Enabled reports whether a key is configured.
func (c *ConfigCipher) Enabled() bool {
	return c != nil && len(c.key) == keySize
}

// EncryptConfig serializes config to canonical JSON and encrypts it. In
// plaintext mode the JSON is returned verbatim.
func (c *ConfigCipher) EncryptConfig(config any) (string, error) {
	serialized, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to serialize config: %w", err)
	}
	return c.Encrypt(serialized)
}

// Encrypt encrypts a raw payload. In plaintext mode the payload is returned
// unchanged.
func (c *ConfigCipher) Encrypt(plaintext []byte) (string, error) {
	if !c.Enabled() {
		return string(plaintext), nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	// Seal appends the auth tag after the ciphertext; the stored layout is
	// iv || authTag || ciphertext.
	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, ivSize+tagSize+len(ciphertext))
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Values written by plaintext fallback mode (raw
// JSON) are returned as-is, so the cipher can read databases that were
// migrated before a key was configured.
func (c *ConfigCipher) Decrypt(stored string) ([]byte, error) {
	if !IsEncrypted(stored) {
		return []byte(stored), nil
	}
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: value is encrypted but no key is configured", ErrMalformedCiphertext)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(stored))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	if len(raw) < ivSize+tagSize {
		return nil, fmt.Errorf("%w: too short", ErrMalformedCiphertext)
	}

	iv := raw[:ivSize]
	tag := raw[ivSize : ivSize+tagSize]
	ciphertext := raw[ivSize+tagSize:]

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+tagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	return plaintext, nil
}

// IsEncrypted reports whether a stored value looks like cipher output rather
// than plaintext JSON. Plaintext fallback always writes a JSON document, so a
// leading brace or bracket identifies it.
func IsEncrypted(stored string) bool {
	trimmed := strings.TrimSpace(stored)
	if trimmed == "" {
		return false
	}
	if trimmed[0] == '{' || trimmed[0] == '[' || trimmed[0] == '"' {
		return false
	}
	raw, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return false
	}
	return len(raw) >= ivSize+tagSize
}
