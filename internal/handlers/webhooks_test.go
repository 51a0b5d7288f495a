package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/internal/payment"
	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/services"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type fakePaymentRepo struct {
	payments map[string]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*models.Payment)}
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, tenantID string, id string) (*models.Payment, error) {
	p, ok := r.payments[id]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *fakePaymentRepo) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.ProviderPaymentID == providerPaymentID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) ListByUserID(ctx context.Context, tenantID string, userID string) ([]models.Payment, error) {
	out := []models.Payment{}
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	clone := *p
	r.payments[p.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	clone := *p
	r.payments[p.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakePaymentRepo) WithTx(tx bun.IDB) repositories.PaymentRepository { return r }

const webhookSecret = "whsec_test"

func newWebhookHandlerForTest(t *testing.T) (*WebhookHandler, *fakePaymentRepo) {
	t.Helper()

	repo := newFakePaymentRepo()
	logger := util.NewMockLogger()
	payments := services.NewPaymentService(repo, nil, nil, logger)
	subscriptions := services.NewSubscriptionService(nil, nil, logger)
	verifier := payment.NewWebhookVerifier(webhookSecret)

	return NewWebhookHandler(verifier, payments, subscriptions, logger), repo
}

func postWebhook(t *testing.T, h *WebhookHandler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}

	rec := httptest.NewRecorder()
	h.HandlePaymentWebhook(rec, req)
	return rec
}

func webhookBody(t *testing.T, eventType string, intentID string) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"id":         "evt_1",
		"type":       eventType,
		"created_at": "2026-01-02T15:04:05Z",
		"data": map[string]any{
			"intent_id": intentID,
			"status":    "succeeded",
		},
	})
	require.NoError(t, err)
	return body
}

func TestWebhookTransitionsPayment(t *testing.T) {
	h, repo := newWebhookHandlerForTest(t)
	repo.payments["pay_1"] = &models.Payment{
		ID:                "pay_1",
		TenantID:          models.DefaultTenantID,
		UserID:            "user_1",
		ProviderPaymentID: "pi_1",
		Status:            models.PaymentStatusPending,
	}

	body := webhookBody(t, payment.EventPaymentSucceeded, "pi_1")
	signature := payment.NewWebhookVerifier(webhookSecret).Sign(body)

	rec := postWebhook(t, h, body, signature)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaymentStatusSucceeded, repo.payments["pay_1"].Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, repo := newWebhookHandlerForTest(t)
	repo.payments["pay_1"] = &models.Payment{
		ID:                "pay_1",
		TenantID:          models.DefaultTenantID,
		ProviderPaymentID: "pi_1",
		Status:            models.PaymentStatusPending,
	}

	body := webhookBody(t, payment.EventPaymentSucceeded, "pi_1")
	wrongSig := payment.NewWebhookVerifier("other-secret").Sign(body)

	rec := postWebhook(t, h, body, wrongSig)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.PaymentStatusPending, repo.payments["pay_1"].Status, "unverified events must not touch state")
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h, _ := newWebhookHandlerForTest(t)

	body := webhookBody(t, payment.EventPaymentSucceeded, "pi_1")
	rec := postWebhook(t, h, body, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	h, _ := newWebhookHandlerForTest(t)

	body := []byte(`{not json`)
	signature := payment.NewWebhookVerifier(webhookSecret).Sign(body)

	rec := postWebhook(t, h, body, signature)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookDuplicateDeliveryIsAcknowledged(t *testing.T) {
	h, repo := newWebhookHandlerForTest(t)
	repo.payments["pay_1"] = &models.Payment{
		ID:                "pay_1",
		TenantID:          models.DefaultTenantID,
		ProviderPaymentID: "pi_1",
		Status:            models.PaymentStatusSucceeded,
	}

	body := webhookBody(t, payment.EventPaymentSucceeded, "pi_1")
	signature := payment.NewWebhookVerifier(webhookSecret).Sign(body)

	rec := postWebhook(t, h, body, signature)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaymentStatusSucceeded, repo.payments["pay_1"].Status)
}

func TestWebhookOutOfOrderEventIsDropped(t *testing.T) {
	h, repo := newWebhookHandlerForTest(t)
	repo.payments["pay_1"] = &models.Payment{
		ID:                "pay_1",
		TenantID:          models.DefaultTenantID,
		ProviderPaymentID: "pi_1",
		Status:            models.PaymentStatusPending,
	}

	// A refund cannot apply to a pending payment; acknowledge so the
	// processor stops retrying.
	body := webhookBody(t, payment.EventPaymentRefunded, "pi_1")
	signature := payment.NewWebhookVerifier(webhookSecret).Sign(body)

	rec := postWebhook(t, h, body, signature)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaymentStatusPending, repo.payments["pay_1"].Status)
}

func TestWebhookUnknownPaymentRetries(t *testing.T) {
	h, _ := newWebhookHandlerForTest(t)

	body := webhookBody(t, payment.EventPaymentSucceeded, "pi_unknown")
	signature := payment.NewWebhookVerifier(webhookSecret).Sign(body)

	rec := postWebhook(t, h, body, signature)

	assert.Equal(t, http.StatusInternalServerError, rec.Code, "unknown intents must 5xx so the processor retries")
}
