package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrNotConfigured      = errors.New("encryption key not configured")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

const keySize = 32

// Service seals per-identity secrets such as TOTP seeds with AES-256-GCM.
// Sealed values are nonce||ciphertext and are bound to the owner id passed at
// seal time, so a value copied onto another identity's row fails to open.
type Service struct {
	aead cipher.AEAD
}

// New builds a sealer from DATA_ENCRYPTION_KEY. An empty key yields an
// unconfigured service that refuses to seal.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	raw, err := parseKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

func (s *Service) SealFor(owner, value string) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	if value == "" {
		return nil, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, []byte(value), []byte(owner)), nil
}

func (s *Service) OpenFor(owner string, sealed []byte) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	if len(sealed) == 0 {
		return "", nil
	}
	n := s.aead.NonceSize()
	if len(sealed) <= n {
		return "", ErrCiphertextTooShort
	}
	plain, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(owner))
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}
	return string(plain), nil
}

// parseKey accepts 64 hex characters, base64 (padded or raw) or 32 raw bytes.
func parseKey(raw string) ([]byte, error) {
	candidates := []func(string) ([]byte, error){
		hex.DecodeString,
		base64.StdEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
	}
	for _, decode := range candidates {
		if decoded, err := decode(raw); err == nil && len(decoded) == keySize {
			return decoded, nil
		}
	}
	if len(raw) == keySize {
		return []byte(raw), nil
	}
	return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must decode to %d bytes", keySize)
}
