// Package payment talks to the external payment processor's REST API and
// verifies its webhooks. The processor is only ever reached through the
// Provider interface so tests and alternative processors can swap it out.
package payment

import (
	"context"
	"time"
)

// Intent is a payment the processor has accepted for collection.
type Intent struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	ClientToken string `json:"client_token"`
}

// Refund is the processor's record of a refund against an intent.
type Refund struct {
	ID       string `json:"id"`
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
}

// Provider is the outbound surface to the payment processor.
type Provider interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, reference string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	RefundIntent(ctx context.Context, id string) (*Refund, error)
}

// WebhookEvent is a processor notification after signature verification
// and payload decoding.
type WebhookEvent struct {
	ID        string         `json:"id" mapstructure:"id"`
	Type      string         `json:"type" mapstructure:"type"`
	CreatedAt time.Time      `json:"created_at" mapstructure:"created_at"`
	Data      WebhookPayment `json:"data" mapstructure:"data"`
}

// WebhookPayment is the payment object embedded in a webhook event.
type WebhookPayment struct {
	IntentID       string `json:"intent_id" mapstructure:"intent_id"`
	SubscriptionID string `json:"subscription_id" mapstructure:"subscription_id"`
	Status         string `json:"status" mapstructure:"status"`
	AmountCents    int64  `json:"amount_cents" mapstructure:"amount_cents"`
	Currency       string `json:"currency" mapstructure:"currency"`
}

// Webhook event types the processor emits.
const (
	EventPaymentSucceeded    = "payment.succeeded"
	EventPaymentFailed       = "payment.failed"
	EventPaymentRefunded     = "payment.refunded"
	EventSubscriptionRenewed = "subscription.renewed"
	EventSubscriptionPastDue = "subscription.past_due"
)
