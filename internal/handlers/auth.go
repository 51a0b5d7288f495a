package handlers

import (
	"errors"
	"net/http"

	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

const (
	badRequestError       = "Bad Request"
	validationFailedError = "Validation Failed"
	unauthorizedError     = "Unauthorized"
	notFoundError         = "Not Found"
	conflictError         = "Conflict"
	internalError         = "Internal Server Error"
)

type AuthHandler struct {
	config *models.Config
	auth   *services.AuthService
	users  *services.UserService
	logger models.Logger
}

func NewAuthHandler(config *models.Config, auth *services.AuthService, users *services.UserService, logger models.Logger) *AuthHandler {
	return &AuthHandler{
		config: config,
		auth:   auth,
		users:  users,
		logger: logger,
	}
}

type SignUpPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignInPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var payload SignUpPayload
	if err := util.ParseJSON(r, &payload); err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "invalid request body", badRequestError)
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		util.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), validationFailedError)
		return
	}

	ip := util.ClientIPFromRequest(r)
	userAgent := r.UserAgent()

	result, err := h.auth.SignUp(r.Context(), models.GetTenantIDFromContext(r.Context()), payload.Name, payload.Email, payload.Password, &ip, &userAgent)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			util.ErrorResponse(w, http.StatusConflict, err.Error(), conflictError)
			return
		}
		h.logger.Error("sign-up failed", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to create account", internalError)
		return
	}

	h.setSessionCookie(w, result.SessionToken)
	util.SuccessResponse(w, http.StatusCreated, "account created", result)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var payload SignInPayload
	if err := util.ParseJSON(r, &payload); err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "invalid request body", badRequestError)
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		util.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), validationFailedError)
		return
	}

	ip := util.ClientIPFromRequest(r)
	userAgent := r.UserAgent()

	result, err := h.auth.SignIn(r.Context(), payload.Email, payload.Password, &ip, &userAgent)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			util.ErrorResponse(w, http.StatusUnauthorized, err.Error(), unauthorizedError)
			return
		}
		h.logger.Error("sign-in failed", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to sign in", internalError)
		return
	}

	h.setSessionCookie(w, result.SessionToken)
	util.SuccessResponse(w, http.StatusOK, "signed in", result)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := models.GetSessionIDFromContext(r.Context()); ok {
		if err := h.auth.SignOut(r.Context(), sessionID); err != nil {
			h.logger.Warn("failed to delete session on sign-out", "session_id", sessionID, "error", err)
		}
	}

	h.clearSessionCookie(w)
	util.SuccessResponse(w, http.StatusOK, "signed out", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := models.GetUserIDFromContext(r.Context())
	if !ok {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load current user", "user_id", userID, "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to load user", internalError)
		return
	}
	if user == nil {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "", user)
}

func (h *AuthHandler) SendEmailVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := models.GetUserIDFromContext(r.Context())
	if !ok {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil || user == nil {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	if err := h.auth.SendVerificationEmail(r.Context(), user); err != nil {
		h.logger.Error("failed to send verification email", "user_id", userID, "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to send verification email", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "verification email sent", nil)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		util.ErrorResponse(w, http.StatusBadRequest, "missing verification token", badRequestError)
		return
	}

	user, err := h.auth.VerifyEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrVerificationInvalid) {
			util.ErrorResponse(w, http.StatusBadRequest, err.Error(), badRequestError)
			return
		}
		h.logger.Error("email verification failed", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to verify email", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "email verified", user)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := models.GetUserIDFromContext(r.Context())
	if !ok {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	var payload ChangePasswordPayload
	if err := util.ParseJSON(r, &payload); err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "invalid request body", badRequestError)
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		util.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), validationFailedError)
		return
	}

	sessionID, _ := models.GetSessionIDFromContext(r.Context())
	if err := h.auth.ChangePassword(r.Context(), userID, payload.CurrentPassword, payload.NewPassword, sessionID); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			util.ErrorResponse(w, http.StatusUnauthorized, err.Error(), unauthorizedError)
		case errors.Is(err, services.ErrPasswordSameAsCurrent):
			util.ErrorResponse(w, http.StatusBadRequest, err.Error(), badRequestError)
		default:
			h.logger.Error("password change failed", "user_id", userID, "error", err)
			util.ErrorResponse(w, http.StatusInternalServerError, "failed to change password", internalError)
		}
		return
	}

	// Other sessions are revoked; the caller's own session stays valid.
	util.SuccessResponse(w, http.StatusOK, "password changed", nil)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: h.config.Session.HttpOnly,
		Secure:   h.config.Session.Secure,
		SameSite: sameSiteFromConfig(h.config.Session.SameSite),
		MaxAge:   int(h.config.Session.ExpiresIn.Seconds()),
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.config.Session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: h.config.Session.HttpOnly,
		Secure:   h.config.Session.Secure,
		SameSite: sameSiteFromConfig(h.config.Session.SameSite),
		MaxAge:   -1,
	})
}

func sameSiteFromConfig(value string) http.SameSite {
	switch value {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
