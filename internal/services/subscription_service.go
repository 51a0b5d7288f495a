package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopkit/shopkit/internal/events"
	"github.com/shopkit/shopkit/internal/payment"
	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionCanceled = errors.New("subscription already canceled")
)

type SubscriptionService struct {
	repo      repositories.SubscriptionRepository
	publisher models.EventPublisher
	logger    models.Logger
}

func NewSubscriptionService(
	repo repositories.SubscriptionRepository,
	publisher models.EventPublisher,
	logger models.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

type CreateSubscriptionInput struct {
	Plan                   string `json:"plan" validate:"required"`
	ProviderSubscriptionID string `json:"provider_subscription_id" validate:"required"`
}

func (s *SubscriptionService) Create(ctx context.Context, tenantID string, userID string, input CreateSubscriptionInput) (*models.Subscription, error) {
	sub := &models.Subscription{
		ID:                     util.GenerateUUID(),
		TenantID:               tenantID,
		UserID:                 userID,
		Plan:                   input.Plan,
		ProviderSubscriptionID: input.ProviderSubscriptionID,
		Status:                 models.SubscriptionStatusActive,
		CurrentPeriodEnd:       time.Now().UTC().AddDate(0, 1, 0),
	}

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSubscriptionCreated, created)
	return created, nil
}

func (s *SubscriptionService) Get(ctx context.Context, tenantID string, id string) (*models.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

func (s *SubscriptionService) ListByUser(ctx context.Context, tenantID string, userID string) ([]models.Subscription, error) {
	return s.repo.ListByUserID(ctx, tenantID, userID)
}

func (s *SubscriptionService) Cancel(ctx context.Context, tenantID string, id string) (*models.Subscription, error) {
	sub, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if sub.Status == models.SubscriptionStatusCanceled {
		return nil, ErrSubscriptionCanceled
	}

	sub.Status = models.SubscriptionStatusCanceled
	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSubscriptionCanceled, updated)
	return updated, nil
}

// ApplyWebhookEvent handles subscription lifecycle notifications from the
// payment processor.
func (s *SubscriptionService) ApplyWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error {
	var status models.SubscriptionStatus
	var eventType string

	switch event.Type {
	case payment.EventSubscriptionRenewed:
		status, eventType = models.SubscriptionStatusActive, events.EventSubscriptionRenewed
	case payment.EventSubscriptionPastDue:
		status, eventType = models.SubscriptionStatusPastDue, events.EventSubscriptionPastDue
	default:
		return nil
	}

	sub, err := s.repo.GetByProviderSubscriptionID(ctx, event.Data.SubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	// A canceled subscription ignores further lifecycle events.
	if sub.Status == models.SubscriptionStatusCanceled {
		return nil
	}

	sub.Status = status
	if event.Type == payment.EventSubscriptionRenewed {
		sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.AddDate(0, 1, 0)
	}

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		return err
	}

	s.publish(ctx, eventType, updated)
	return nil
}

func (s *SubscriptionService) publish(ctx context.Context, eventType string, sub *models.Subscription) {
	if s.publisher == nil {
		return
	}

	payload, err := util.MarshalJSON(sub)
	if err != nil {
		s.logger.Warn("failed to encode subscription event payload", "event_type", eventType, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, models.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn("failed to publish subscription event", "event_type", eventType, "subscription_id", sub.ID, "error", err)
	}
}
