package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type VerificationService struct {
	repo repositories.VerificationRepository
}

func NewVerificationService(repo repositories.VerificationRepository) *VerificationService {
	return &VerificationService{repo: repo}
}

func (s *VerificationService) Create(
	ctx context.Context,
	userID string,
	hashedToken string,
	vType models.VerificationType,
	expiry time.Duration,
) (*models.Verification, error) {
	if hashedToken == "" {
		return nil, fmt.Errorf("hashedToken cannot be empty")
	}

	// A fresh token replaces any outstanding one of the same type.
	if err := s.repo.DeleteByUserIDAndType(ctx, userID, vType); err != nil {
		return nil, err
	}

	verification := &models.Verification{
		ID:        util.GenerateUUID(),
		UserID:    userID,
		Token:     hashedToken,
		Type:      vType,
		ExpiresAt: time.Now().UTC().Add(expiry),
	}

	return s.repo.Create(ctx, verification)
}

func (s *VerificationService) GetByToken(ctx context.Context, hashedToken string) (*models.Verification, error) {
	return s.repo.GetByToken(ctx, hashedToken)
}

func (s *VerificationService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *VerificationService) IsExpired(v *models.Verification) bool {
	return time.Now().UTC().After(v.ExpiresAt)
}
