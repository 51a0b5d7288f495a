package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopkit/shopkit/internal/events"
	"github.com/shopkit/shopkit/internal/payment"
	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

var (
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrInvalidStateTransition = errors.New("invalid payment state transition")
)

// PaymentService creates payment intents with the external processor and
// drives the local payment state machine from its webhooks.
type PaymentService struct {
	repo      repositories.PaymentRepository
	provider  payment.Provider
	publisher models.EventPublisher
	logger    models.Logger
}

func NewPaymentService(
	repo repositories.PaymentRepository,
	provider payment.Provider,
	publisher models.EventPublisher,
	logger models.Logger,
) *PaymentService {
	return &PaymentService{
		repo:      repo,
		provider:  provider,
		publisher: publisher,
		logger:    logger,
	}
}

type CreatePaymentInput struct {
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Currency    string `json:"currency"`
}

// PaymentIntentResult pairs the local payment record with the client
// token the frontend hands to the processor's checkout widget.
type PaymentIntentResult struct {
	Payment     *models.Payment `json:"payment"`
	ClientToken string          `json:"client_token"`
}

// CreateIntent registers the payment with the processor, then records it
// locally as pending.
func (s *PaymentService) CreateIntent(ctx context.Context, tenantID string, userID string, input CreatePaymentInput) (*PaymentIntentResult, error) {
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	reference := util.GenerateUUID()
	intent, err := s.provider.CreateIntent(ctx, input.AmountCents, currency, reference)
	if err != nil {
		return nil, fmt.Errorf("payment provider rejected intent: %w", err)
	}

	record := &models.Payment{
		ID:                reference,
		TenantID:          tenantID,
		UserID:            userID,
		ProviderPaymentID: intent.ID,
		AmountCents:       input.AmountCents,
		Currency:          currency,
		Status:            models.PaymentStatusPending,
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventPaymentCreated, created)

	return &PaymentIntentResult{
		Payment:     created,
		ClientToken: intent.ClientToken,
	}, nil
}

func (s *PaymentService) Get(ctx context.Context, tenantID string, id string) (*models.Payment, error) {
	p, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (s *PaymentService) ListByUser(ctx context.Context, tenantID string, userID string) ([]models.Payment, error) {
	return s.repo.ListByUserID(ctx, tenantID, userID)
}

// Refund asks the processor to refund a succeeded payment. The local
// record stays "succeeded" until the processor confirms via webhook.
func (s *PaymentService) Refund(ctx context.Context, tenantID string, id string) error {
	p, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if !p.Status.CanTransitionTo(models.PaymentStatusRefunded) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, p.Status, models.PaymentStatusRefunded)
	}

	if _, err := s.provider.RefundIntent(ctx, p.ProviderPaymentID); err != nil {
		return fmt.Errorf("payment provider rejected refund: %w", err)
	}
	return nil
}

// ApplyWebhookEvent transitions the payment named by a verified webhook.
// Replayed and out-of-order events that would violate the state machine
// are rejected; unknown payments are an error so the processor retries
// after the intent lands.
func (s *PaymentService) ApplyWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error {
	var target models.PaymentStatus
	var eventType string

	switch event.Type {
	case payment.EventPaymentSucceeded:
		target, eventType = models.PaymentStatusSucceeded, events.EventPaymentSucceeded
	case payment.EventPaymentFailed:
		target, eventType = models.PaymentStatusFailed, events.EventPaymentFailed
	case payment.EventPaymentRefunded:
		target, eventType = models.PaymentStatusRefunded, events.EventPaymentRefunded
	default:
		// Not a payment event; caller routes subscription events elsewhere.
		return nil
	}

	p, err := s.repo.GetByProviderPaymentID(ctx, event.Data.IntentID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: provider payment %s", ErrPaymentNotFound, event.Data.IntentID)
	}

	if p.Status == target {
		// Duplicate delivery; already applied.
		return nil
	}

	if !p.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, p.Status, target)
	}

	p.Status = target
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return err
	}

	s.publish(ctx, eventType, updated)
	return nil
}

// publish emits a domain event; a broken bus is logged, not fatal.
func (s *PaymentService) publish(ctx context.Context, eventType string, p *models.Payment) {
	if s.publisher == nil {
		return
	}

	payload, err := util.MarshalJSON(p)
	if err != nil {
		s.logger.Warn("failed to encode payment event payload", "event_type", eventType, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, models.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn("failed to publish payment event", "event_type", eventType, "payment_id", p.ID, "error", err)
	}
}
