package handlers

import (
	"errors"
	"net/http"

	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type PaymentHandler struct {
	payments *services.PaymentService
	logger   models.Logger
}

func NewPaymentHandler(payments *services.PaymentService, logger models.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := models.GetUserIDFromContext(r.Context())
	if !ok {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	var payload services.CreatePaymentInput
	if err := util.ParseJSON(r, &payload); err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "invalid request body", badRequestError)
		return
	}
	if err := util.ValidateStruct(payload); err != nil {
		util.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), validationFailedError)
		return
	}

	result, err := h.payments.CreateIntent(r.Context(), models.GetTenantIDFromContext(r.Context()), userID, payload)
	if err != nil {
		h.logger.Error("failed to create payment intent", "user_id", userID, "error", err)
		util.ErrorResponse(w, http.StatusBadGateway, "failed to create payment intent", "Payment Provider Error")
		return
	}

	util.SuccessResponse(w, http.StatusCreated, "payment intent created", result)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.payments.Get(r.Context(), models.GetTenantIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			util.ErrorResponse(w, http.StatusNotFound, err.Error(), notFoundError)
			return
		}
		h.logger.Error("failed to load payment", "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to load payment", internalError)
		return
	}

	// Customers may only see their own payments.
	if userID, _ := models.GetUserIDFromContext(r.Context()); payment.UserID != userID {
		if role, _ := models.GetUserRoleFromContext(r.Context()); role != models.RoleAdmin && role != models.RoleStaff {
			util.ErrorResponse(w, http.StatusNotFound, services.ErrPaymentNotFound.Error(), notFoundError)
			return
		}
	}

	util.SuccessResponse(w, http.StatusOK, "", payment)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := models.GetUserIDFromContext(r.Context())
	if !ok {
		util.ErrorResponse(w, http.StatusUnauthorized, "authentication required", unauthorizedError)
		return
	}

	list, err := h.payments.ListByUser(r.Context(), models.GetTenantIDFromContext(r.Context()), userID)
	if err != nil {
		h.logger.Error("failed to list payments", "user_id", userID, "error", err)
		util.ErrorResponse(w, http.StatusInternalServerError, "failed to list payments", internalError)
		return
	}

	util.SuccessResponse(w, http.StatusOK, "", list)
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	err := h.payments.Refund(r.Context(), models.GetTenantIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			util.ErrorResponse(w, http.StatusNotFound, err.Error(), notFoundError)
		case errors.Is(err, services.ErrInvalidStateTransition):
			util.ErrorResponse(w, http.StatusConflict, err.Error(), conflictError)
		default:
			h.logger.Error("failed to refund payment", "error", err)
			util.ErrorResponse(w, http.StatusBadGateway, "failed to refund payment", "Payment Provider Error")
		}
		return
	}

	util.SuccessResponse(w, http.StatusAccepted, "refund requested", nil)
}
