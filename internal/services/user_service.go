package services

import (
	"context"
	"errors"

	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	repo repositories.UserRepository
}

func NewUserService(repo repositories.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Create(ctx context.Context, tenantID string, name string, email string, role models.Role) (*models.User, error) {
	user := &models.User{
		ID:       util.GenerateUUID(),
		TenantID: tenantID,
		Name:     name,
		Email:    email,
		Role:     role,
	}
	return s.repo.Create(ctx, user)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) MarkEmailVerified(ctx context.Context, id string) error {
	return s.repo.UpdateFields(ctx, id, map[string]any{"email_verified": true})
}
