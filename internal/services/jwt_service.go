package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// JWTService issues and validates HS256 access tokens signed with the
// application secret.
type JWTService struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration
}

func NewJWTService(secret string, issuer string, expiresIn time.Duration) *JWTService {
	return &JWTService{
		secret:    []byte(secret),
		issuer:    issuer,
		expiresIn: expiresIn,
	}
}

// Issue creates a signed access token for a user session.
func (s *JWTService) Issue(userID string, sessionID string, role string) (string, error) {
	now := time.Now().UTC()

	claims := jwt.New()
	claims.Set(jwt.SubjectKey, userID)
	claims.Set(jwt.IssuerKey, s.issuer)
	claims.Set(jwt.IssuedAtKey, now)
	claims.Set(jwt.ExpirationKey, now.Add(s.expiresIn))
	claims.Set("session_id", sessionID)
	claims.Set("role", role)

	signed, err := jwt.Sign(claims, jwt.WithKey(jwa.HS256(), s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// JWTClaims holds the claims the rest of the system cares about.
type JWTClaims struct {
	UserID    string
	SessionID string
	Role      string
}

// Validate parses and verifies a token, returning its claims.
func (s *JWTService) Validate(token string) (*JWTClaims, error) {
	parsed, err := jwt.Parse([]byte(token), jwt.WithKey(jwa.HS256(), s.secret), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	userID, ok := parsed.Subject()
	if !ok || userID == "" {
		return nil, errors.New("missing subject claim")
	}

	var sessionID string
	if err := parsed.Get("session_id", &sessionID); err != nil || sessionID == "" {
		return nil, errors.New("missing session_id claim")
	}

	var role string
	if err := parsed.Get("role", &role); err != nil {
		return nil, errors.New("missing role claim")
	}

	return &JWTClaims{
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
	}, nil
}
