package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/shopkit/shopkit/internal/payment"
	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

const (
	webhookSignatureHeader = "X-Webhook-Signature"

	// maxWebhookBody bounds how much of a webhook request is read. The
	// processor's events are small; anything larger is hostile.
	maxWebhookBody = 1 << 20
)

// WebhookHandler receives payment processor callbacks, verifies the HMAC
// signature over the raw body and routes the event to the payment or
// subscription state machine.
type WebhookHandler struct {
	verifier      *payment.WebhookVerifier
	payments      *services.PaymentService
	subscriptions *services.SubscriptionService
	logger        models.Logger
}

func NewWebhookHandler(
	verifier *payment.WebhookVerifier,
	payments *services.PaymentService,
	subscriptions *services.SubscriptionService,
	logger models.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:      verifier,
		payments:      payments,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "failed to read request body", badRequestError)
		return
	}

	if err := h.verifier.Verify(body, r.Header.Get(webhookSignatureHeader)); err != nil {
		h.logger.Warn("rejected webhook with bad signature", "remote_ip", util.MaskIP(util.ClientIPFromRequest(r)), "error", err)
		util.ErrorResponse(w, http.StatusUnauthorized, "invalid signature", unauthorizedError)
		return
	}

	event, err := payment.DecodeEvent(body)
	if err != nil {
		util.ErrorResponse(w, http.StatusBadRequest, "malformed webhook event", badRequestError)
		return
	}

	if err := h.dispatch(r, event); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStateTransition):
			// Out-of-order delivery. Acknowledge so the processor stops
			// retrying an event that can never apply.
			h.logger.Warn("dropping out-of-order webhook event", "event_id", event.ID, "event_type", event.Type, "error", err)
			util.SuccessResponse(w, http.StatusOK, "event ignored", nil)
		default:
			// Unknown payment, broken database. A 5xx makes the processor
			// retry with backoff.
			h.logger.Error("webhook processing failed", "event_id", event.ID, "event_type", event.Type, "error", err)
			util.ErrorResponse(w, http.StatusInternalServerError, "failed to process event", internalError)
		}
		return
	}

	util.SuccessResponse(w, http.StatusOK, "event processed", nil)
}

func (h *WebhookHandler) dispatch(r *http.Request, event *payment.WebhookEvent) error {
	if strings.HasPrefix(event.Type, "subscription.") {
		return h.subscriptions.ApplyWebhookEvent(r.Context(), event)
	}
	return h.payments.ApplyWebhookEvent(r.Context(), event)
}
