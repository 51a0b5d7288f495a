package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type fakeAccountRepo struct {
	account *models.Account
	updated map[string]any
}

func (r *fakeAccountRepo) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	if r.account != nil && r.account.UserID == userID {
		return r.account, nil
	}
	return nil, nil
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.account = account
	return account, nil
}

func (r *fakeAccountRepo) UpdateFields(ctx context.Context, userID string, fields map[string]any) error {
	r.updated = fields
	if hashed, ok := fields["password"].(string); ok {
		r.account.Password = &hashed
	}
	return nil
}

func (r *fakeAccountRepo) WithTx(tx bun.IDB) repositories.AccountRepository { return r }

type fakeSessionRepo struct {
	sessions map[string]*models.Session
}

func (r *fakeSessionRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	for _, session := range r.sessions {
		if session.Token == token {
			return session, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	r.sessions[session.ID] = session
	return session, nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteByUserIDExcept(ctx context.Context, userID string, keepID string) error {
	for id, session := range r.sessions {
		if session.UserID == userID && id != keepID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

func (r *fakeSessionRepo) WithTx(tx bun.IDB) repositories.SessionRepository { return r }

func newPasswordChangeFixture(t *testing.T, currentPassword string) (*AuthService, *fakeAccountRepo, *fakeSessionRepo) {
	t.Helper()

	passwords := NewArgon2PasswordService()
	hashed, err := passwords.Hash(currentPassword)
	require.NoError(t, err)

	accounts := &fakeAccountRepo{account: &models.Account{ID: "a1", UserID: "u1", Password: &hashed}}
	sessions := &fakeSessionRepo{sessions: map[string]*models.Session{
		"current": {ID: "current", UserID: "u1"},
		"other":   {ID: "other", UserID: "u1"},
	}}

	auth := NewAuthService(
		&models.Config{},
		NewUserService(nil),
		accounts,
		NewSessionService(sessions),
		NewVerificationService(nil),
		NewTokenService(nil),
		passwords,
		nil,
		nil,
		nil,
		util.NewMockLogger(),
	)

	return auth, accounts, sessions
}

func TestChangePasswordKeepsCurrentSession(t *testing.T) {
	auth, accounts, sessions := newPasswordChangeFixture(t, "old-password-1")

	err := auth.ChangePassword(context.Background(), "u1", "old-password-1", "new-password-1", "current")
	require.NoError(t, err)

	assert.Contains(t, sessions.sessions, "current")
	assert.NotContains(t, sessions.sessions, "other")
	assert.Contains(t, accounts.updated, "password")
	assert.True(t, NewArgon2PasswordService().Verify("new-password-1", *accounts.account.Password))
}

func TestChangePasswordWithoutSessionRevokesAll(t *testing.T) {
	auth, _, sessions := newPasswordChangeFixture(t, "old-password-1")

	err := auth.ChangePassword(context.Background(), "u1", "old-password-1", "new-password-1", "")
	require.NoError(t, err)

	assert.Empty(t, sessions.sessions)
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	auth, accounts, sessions := newPasswordChangeFixture(t, "old-password-1")

	err := auth.ChangePassword(context.Background(), "u1", "not-the-password", "new-password-1", "current")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Nil(t, accounts.updated)
	assert.Len(t, sessions.sessions, 2)
}
