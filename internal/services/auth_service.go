package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopkit/shopkit/internal/events"
	"github.com/shopkit/shopkit/internal/mail"
	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

var (
	ErrEmailTaken            = errors.New("an account with this email already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrVerificationInvalid   = errors.New("verification token is invalid or expired")
	ErrPasswordSameAsCurrent = errors.New("new password must differ from the current one")
)

// AuthService orchestrates sign-up, sign-in, email verification and
// password changes across the account, session and verification services.
type AuthService struct {
	config        *models.Config
	users         *UserService
	accounts      repositories.AccountRepository
	sessions      *SessionService
	verifications *VerificationService
	tokens        *TokenService
	passwords     *Argon2PasswordService
	jwt           *JWTService
	mailer        *mail.Service
	publisher     models.EventPublisher
	logger        models.Logger
}

func NewAuthService(
	config *models.Config,
	users *UserService,
	accounts repositories.AccountRepository,
	sessions *SessionService,
	verifications *VerificationService,
	tokens *TokenService,
	passwords *Argon2PasswordService,
	jwt *JWTService,
	mailer *mail.Service,
	publisher models.EventPublisher,
	logger models.Logger,
) *AuthService {
	return &AuthService{
		config:        config,
		users:         users,
		accounts:      accounts,
		sessions:      sessions,
		verifications: verifications,
		tokens:        tokens,
		passwords:     passwords,
		jwt:           jwt,
		mailer:        mailer,
		publisher:     publisher,
		logger:        logger,
	}
}

// AuthResult is returned from sign-up and sign-in: the raw session token
// goes into the cookie, the JWT into the response body.
type AuthResult struct {
	User         *models.User `json:"user"`
	SessionToken string       `json:"-"`
	AccessToken  string       `json:"access_token"`
}

func (s *AuthService) SignUp(ctx context.Context, tenantID string, name string, email string, password string, ipAddress *string, userAgent *string) (*AuthResult, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	user, err := s.users.Create(ctx, tenantID, name, email, models.RoleCustomer)
	if err != nil {
		return nil, err
	}

	hashed, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.Create(ctx, &models.Account{
		ID:       util.GenerateUUID(),
		UserID:   user.ID,
		Password: &hashed,
	}); err != nil {
		return nil, err
	}

	result, err := s.createSession(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	s.publishUserEvent(ctx, events.EventUserSignedUp, user)

	// Verification email failure must not fail the sign-up.
	if err := s.SendVerificationEmail(ctx, user); err != nil {
		s.logger.Warn("failed to send verification email on sign-up", "user_id", user.ID, "error", err)
	}

	return result, nil
}

func (s *AuthService) SignIn(ctx context.Context, email string, password string, ipAddress *string, userAgent *string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.Password == nil {
		return nil, ErrInvalidCredentials
	}

	if !s.passwords.Verify(password, *account.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(ctx, user, ipAddress, userAgent)
}

func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ResolveSession maps a raw cookie token to its session and user.
func (s *AuthService) ResolveSession(ctx context.Context, rawToken string) (*models.Session, *models.User, error) {
	session, err := s.sessions.GetByToken(ctx, s.tokens.Hash(rawToken))
	if err != nil || session == nil {
		return nil, nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil || user == nil {
		return nil, nil, err
	}

	return session, user, nil
}

// SendVerificationEmail issues a fresh email-verification token and mails
// the confirmation link.
func (s *AuthService) SendVerificationEmail(ctx context.Context, user *models.User) error {
	if user.EmailVerified {
		return nil
	}

	raw, err := s.tokens.Generate()
	if err != nil {
		return err
	}

	if _, err := s.verifications.Create(ctx, user.ID, s.tokens.Hash(raw), models.VerificationTypeEmail, s.config.Email.VerificationTTL); err != nil {
		return err
	}

	link := fmt.Sprintf("%s%s/auth/verify-email?token=%s", s.config.BaseURL, util.NormalizePath(s.config.BasePath), raw)
	text := fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening the link below:\n\n%s\n", user.Name, link)

	return s.mailer.SendEmail(ctx, user.Email, "Verify your email address", text, "")
}

// VerifyEmail consumes a verification token and marks the user verified.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (*models.User, error) {
	verification, err := s.verifications.GetByToken(ctx, s.tokens.Hash(rawToken))
	if err != nil {
		return nil, err
	}
	if verification == nil || verification.Type != models.VerificationTypeEmail {
		return nil, ErrVerificationInvalid
	}

	// Single use, even when expired.
	defer func() {
		if err := s.verifications.Delete(ctx, verification.ID); err != nil {
			s.logger.Warn("failed to delete consumed verification", "verification_id", verification.ID, "error", err)
		}
	}()

	if s.verifications.IsExpired(verification) {
		return nil, ErrVerificationInvalid
	}

	if err := s.users.MarkEmailVerified(ctx, verification.UserID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, verification.UserID)
	if err != nil {
		return nil, err
	}

	s.publishUserEvent(ctx, events.EventUserEmailVerified, user)
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every other session.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string, keepSessionID string) error {
	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if account == nil || account.Password == nil {
		return ErrInvalidCredentials
	}

	if !s.passwords.Verify(currentPassword, *account.Password) {
		return ErrInvalidCredentials
	}
	if currentPassword == newPassword {
		return ErrPasswordSameAsCurrent
	}

	hashed, err := s.passwords.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.accounts.UpdateFields(ctx, userID, map[string]any{"password": hashed}); err != nil {
		return err
	}

	// The session making the change survives; all others are revoked.
	var revokeErr error
	if keepSessionID != "" {
		revokeErr = s.sessions.DeleteAllByUserIDExcept(ctx, userID, keepSessionID)
	} else {
		revokeErr = s.sessions.DeleteAllByUserID(ctx, userID)
	}
	if revokeErr != nil {
		s.logger.Warn("failed to revoke sessions after password change", "user_id", userID, "error", revokeErr)
	}

	return nil
}

func (s *AuthService) createSession(ctx context.Context, user *models.User, ipAddress *string, userAgent *string) (*AuthResult, error) {
	raw, err := s.tokens.Generate()
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, user.ID, s.tokens.Hash(raw), ipAddress, userAgent, s.config.Session.ExpiresIn)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.Issue(user.ID, session.ID, user.Role.String())
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		SessionToken: raw,
		AccessToken:  accessToken,
	}, nil
}

func (s *AuthService) publishUserEvent(ctx context.Context, eventType string, user *models.User) {
	if s.publisher == nil || user == nil {
		return
	}

	payload, err := util.MarshalJSON(map[string]string{
		"user_id":   user.ID,
		"tenant_id": user.TenantID,
		"email":     user.Email,
	})
	if err != nil {
		return
	}

	if err := s.publisher.Publish(ctx, models.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn("failed to publish user event", "event_type", eventType, "user_id", user.ID, "error", err)
	}
}
