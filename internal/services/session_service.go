package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type SessionService struct {
	repo repositories.SessionRepository
}

func NewSessionService(repo repositories.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Create(
	ctx context.Context,
	userID string,
	hashedToken string,
	ipAddress *string,
	userAgent *string,
	maxAge time.Duration,
) (*models.Session, error) {
	if hashedToken == "" {
		return nil, fmt.Errorf("hashedToken cannot be empty")
	}

	session := &models.Session{
		ID:        util.GenerateUUID(),
		UserID:    userID,
		Token:     hashedToken,
		ExpiresAt: time.Now().UTC().Add(maxAge),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	return s.repo.Create(ctx, session)
}

// GetByToken resolves a hashed session token to a live session. Expired
// sessions are deleted on access and reported as absent.
func (s *SessionService) GetByToken(ctx context.Context, hashedToken string) (*models.Session, error) {
	session, err := s.repo.GetByToken(ctx, hashedToken)
	if err != nil || session == nil {
		return nil, err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		_ = s.repo.Delete(ctx, session.ID)
		return nil, nil
	}

	return session, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *SessionService) DeleteAllByUserID(ctx context.Context, userID string) error {
	return s.repo.DeleteByUserID(ctx, userID)
}

// DeleteAllByUserIDExcept revokes every session of the user except the
// one identified by keepID.
func (s *SessionService) DeleteAllByUserIDExcept(ctx context.Context, userID string, keepID string) error {
	return s.repo.DeleteByUserIDExcept(ctx, userID, keepID)
}

// PurgeExpired removes expired sessions, returning how many were deleted.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}
