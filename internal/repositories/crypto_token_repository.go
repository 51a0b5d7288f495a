package repositories

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrTokenCorrupt = errors.New("token is invalid or tampered")

const rawTokenBytes = 32

// cryptoTokenRepository generates and protects opaque tokens: session and
// verification tokens are stored hashed, and tokens that must round-trip
// through third parties are sealed with XChaCha20-Poly1305.
type cryptoTokenRepository struct {
	key []byte
}

// NewCryptoTokenRepository derives the sealing key from the application
// secret; any secret length is accepted and normalized through SHA-256.
func NewCryptoTokenRepository(secret string) TokenRepository {
	key := sha256.Sum256([]byte(secret))
	return &cryptoTokenRepository{key: key[:]}
}

// Generate returns a fresh 256-bit random token, hex encoded.
func (r *cryptoTokenRepository) Generate() (string, error) {
	raw := make([]byte, rawTokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Hash maps a raw token to the digest persisted in the database. Lookups
// compare digests so a database leak never exposes usable tokens.
func (r *cryptoTokenRepository) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Encrypt seals a token as base64url(nonce || ciphertext).
func (r *cryptoTokenRepository) Encrypt(token string) (string, error) {
	aead, err := chacha20poly1305.NewX(r.key)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, chacha20poly1305.NonceSizeX, chacha20poly1305.NonceSizeX+len(token)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, sealed[:chacha20poly1305.NonceSizeX]); err != nil {
		return "", err
	}

	sealed = aead.Seal(sealed, sealed[:chacha20poly1305.NonceSizeX], []byte(token), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt, rejecting anything truncated or tampered.
func (r *cryptoTokenRepository) Decrypt(encrypted string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encrypted)
	if err != nil {
		return "", ErrTokenCorrupt
	}
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return "", ErrTokenCorrupt
	}

	aead, err := chacha20poly1305.NewX(r.key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:], nil)
	if err != nil {
		return "", ErrTokenCorrupt
	}

	return string(plaintext), nil
}
