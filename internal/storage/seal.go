package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Value prefixes stored in front of every settings value.
const (
	plainTag  byte = 0x00
	sealedTag byte = 0x01
)

const sealInfo = "ndaify-settings-v1"

var (
	// ErrSealed is returned when a sealed value is read without a key.
	ErrSealed = errors.New("value is sealed: store.encryption_key is required")

	// ErrUnseal is returned when a sealed value fails authentication, which
	// usually means a different encryption key.
	ErrUnseal = errors.New("unseal failed: wrong encryption key or corrupt value")

	errEmptySecret = errors.New("encryption key is empty")
)

// Sealer encrypts settings values with ChaCha20-Poly1305. The AEAD key is
// an HKDF-SHA256 subkey of the configured secret, and the settings key is
// bound as additional data so values cannot be swapped between keys.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a Sealer from secret.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(sealInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns tag || nonce || ciphertext.
func (s *Sealer) Seal(name string, plaintext []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	out := make([]byte, 1+ns, 1+ns+len(plaintext)+s.aead.Overhead())
	out[0] = sealedTag
	if _, err := rand.Read(out[1 : 1+ns]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(out, out[1:1+ns], plaintext, []byte(name)), nil
}

// Open reverses Seal.
func (s *Sealer) Open(name string, sealed []byte) ([]byte, error) {
	ns := s.aead.NonceSize()
	if len(sealed) < 1+ns+s.aead.Overhead() || sealed[0] != sealedTag {
		return nil, ErrUnseal
	}
	plain, err := s.aead.Open(nil, sealed[1:1+ns], sealed[1+ns:], []byte(name))
	if err != nil {
		return nil, ErrUnseal
	}
	return plain, nil
}

// encodeValue prefixes value with its tag, sealing it when s is set.
func encodeValue(s *Sealer, name string, value []byte) ([]byte, error) {
	if s != nil {
		return s.Seal(name, value)
	}
	return append([]byte{plainTag}, value...), nil
}

// decodeValue accepts plain values regardless of s, so enabling a key
// later keeps existing settings readable.
func decodeValue(s *Sealer, name string, raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrUnseal
	}
	switch raw[0] {
	case plainTag:
		return raw[1:], nil
	case sealedTag:
		if s == nil {
			return nil, ErrSealed
		}
		return s.Open(name, raw)
	default:
		return nil, fmt.Errorf("unknown value tag 0x%02x", raw[0])
	}
}
