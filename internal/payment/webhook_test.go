package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookVerifierRoundTrip(t *testing.T) {
	verifier := NewWebhookVerifier("whsec_test")
	body := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)

	sig := verifier.Sign(body)
	require.NoError(t, verifier.Verify(body, sig))
}

func TestWebhookVerifierRejectsTamperedBody(t *testing.T) {
	verifier := NewWebhookVerifier("whsec_test")
	body := []byte(`{"id":"evt_1","type":"payment.succeeded"}`)
	sig := verifier.Sign(body)

	err := verifier.Verify([]byte(`{"id":"evt_1","type":"payment.refunded"}`), sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhookVerifierRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"id":"evt_1"}`)
	sig := NewWebhookVerifier("whsec_a").Sign(body)

	err := NewWebhookVerifier("whsec_b").Verify(body, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhookVerifierRejectsMissingOrMalformedSignature(t *testing.T) {
	verifier := NewWebhookVerifier("whsec_test")
	body := []byte(`{}`)

	assert.ErrorIs(t, verifier.Verify(body, ""), ErrMissingSignature)
	assert.ErrorIs(t, verifier.Verify(body, "not-hex!"), ErrInvalidSignature)
}

func TestDecodeEvent(t *testing.T) {
	body := []byte(`{
		"id": "evt_42",
		"type": "payment.succeeded",
		"created_at": "2026-08-30T10:00:00Z",
		"data": {
			"intent_id": "pi_123",
			"status": "succeeded",
			"amount_cents": 1999,
			"currency": "USD"
		}
	}`)

	event, err := DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "evt_42", event.ID)
	assert.Equal(t, EventPaymentSucceeded, event.Type)
	assert.Equal(t, "pi_123", event.Data.IntentID)
	assert.Equal(t, int64(1999), event.Data.AmountCents)
	assert.Equal(t, 2026, event.CreatedAt.Year())
}

func TestDecodeEventRejectsMalformedBody(t *testing.T) {
	_, err := DecodeEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"type":"payment.succeeded"}`))
	assert.Error(t, err)
}
