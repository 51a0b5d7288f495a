package handlers

import (
	"errors"
	"net/http"

	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
	logger        models.Logger
}

func NewSubscriptionHandler(subscriptions *services.SubscriptionService, logger models.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := models.GetUserIDFromContext(r.Context())
	if !ok {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	var payload services.CreateSubscriptionInput
	if err := util.ParseJSON(r, &payload); err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "invalid request body", badRequestError)
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		util.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), validationFailedError)
		return
	}

	sub, err := h.subscriptions.Create(r.Context(), models.GetTenantIDFromContext(r.Context()), userID, payload)
	if err != nil {
		h.logger.Error("failed to create subscription", "user_id", userID, "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to create subscription", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusCreated, "subscription created", sub)
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptions.Get(r.Context(), models.GetTenantIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			util.ErrorResponse(w, http.StatusNotFound, err.Error(), notFoundError)
			return
		}
		h.logger.Error("failed to load subscription", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to load subscription", internalError)
		return
	}

	if userID, _ := models.GetUserIDFromContext(r.Context()); sub.UserID != userID {
		if role, _ := models.GetUserRoleFromContext(r.Context()); role != models.RoleAdmin && role != models.RoleStaff {
			util.ErrorResponse(w, http.StatusNotFound, services.ErrSubscriptionNotFound.Error(), notFoundError)
			return
		}
	}

	util.SuccessResponse(w, http.StatusOK, "", sub)
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := models.GetUserIDFromContext(r.Context())
	if !ok {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	list, err := h.subscriptions.ListByUser(r.Context(), models.GetTenantIDFromContext(r.Context()), userID)
	if err != nil {
		h.logger.Error("failed to list subscriptions", "user_id", userID, "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to list subscriptions", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "", list)
}

func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptions.Cancel(r.Context(), models.GetTenantIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubscriptionNotFound):
			util.ErrorResponse(w, http.StatusNotFound, err.Error(), notFoundError)
		case errors.Is(err, services.ErrSubscriptionCanceled):
			util.ErrorResponse(w, http.StatusConflict, err.Error(), conflictError)
		default:
			h.logger.Error("failed to cancel subscription", "error", err)
			util.ErrorResponse(w, http.StatusInternalServerError, "failed to cancel subscription", internalError)
		}
		return
	}

	util.SuccessResponse(w, http.StatusOK, "subscription canceled", sub)
}
