package sealer

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/markdave123-py/mindease/internal/core"
)

const (
	keySize   = 32
	nonceSize = 24
)

var ErrOpen = errors.New("sealed content could not be decrypted")

// SecretBox seals text with NaCl secretbox. Output is base64(nonce || box).
type SecretBox struct {
	key [keySize]byte
}

var _ core.Sealer = (*SecretBox)(nil)

// NewSecretBox takes a base64-encoded 32-byte key.
func NewSecretBox(encodedKey string) (*SecretBox, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode journal key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("journal key must be %d bytes, got %d", keySize, len(raw))
	}
	s := &SecretBox{}
	copy(s.key[:], raw)
	return s, nil
}

func (s *SecretBox) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *SecretBox) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}

// Plain stores text unchanged. Used when no key is configured.
type Plain struct{}

var _ core.Sealer = Plain{}

func (Plain) Seal(plaintext string) (string, error) { return plaintext, nil }
func (Plain) Open(sealed string) (string, error)    { return sealed, nil }

// New returns a SecretBox for a non-empty key, otherwise Plain.
func New(encodedKey string) (core.Sealer, error) {
	if encodedKey == "" {
		return Plain{}, nil
	}
	return NewSecretBox(encodedKey)
}
