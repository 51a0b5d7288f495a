package services

import (
	"github.com/shopkit/shopkit/internal/repositories"
)

// TokenService wraps the token repository for session and verification
// token handling.
type TokenService struct {
	tokenRepo repositories.TokenRepository
}

func NewTokenService(tokenRepo repositories.TokenRepository) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
	}
}

// Generate generates a new token by delegating to the repository
func (t *TokenService) Generate() (string, error) {
	return t.tokenRepo.Generate()
}

// Hash hashes the token by delegating to the repository
func (t *TokenService) Hash(token string) string {
	return t.tokenRepo.Hash(token)
}

// Encrypt encrypts the token by delegating to the repository
func (t *TokenService) Encrypt(token string) (string, error) {
	return t.tokenRepo.Encrypt(token)
}

// Decrypt decrypts the token by delegating to the repository
func (t *TokenService) Decrypt(encryptedToken string) (string, error) {
	return t.tokenRepo.Decrypt(encryptedToken)
}
