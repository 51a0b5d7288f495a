package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/models"
)

type BunSubscriptionRepository struct {
	db bun.IDB
}

func NewBunSubscriptionRepository(db bun.IDB) SubscriptionRepository {
	return &BunSubscriptionRepository{db: db}
}

func (r *BunSubscriptionRepository) GetByID(ctx context.Context, tenantID string, id string) (*models.Subscription, error) {
	return findOne[models.Subscription](ctx, r.db, "tenant_id = ? AND id = ?", tenantID, id)
}

func (r *BunSubscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error) {
	return findOne[models.Subscription](ctx, r.db, "provider_subscription_id = ?", providerSubscriptionID)
}

func (r *BunSubscriptionRepository) ListByUserID(ctx context.Context, tenantID string, userID string) ([]models.Subscription, error) {
	return listNewestFirst[models.Subscription](ctx, r.db, "tenant_id = ? AND user_id = ?", tenantID, userID)
}

func (r *BunSubscriptionRepository) Create(ctx context.Context, subscription *models.Subscription) (*models.Subscription, error) {
	return insertReturning(ctx, r.db, subscription)
}

func (r *BunSubscriptionRepository) Update(ctx context.Context, subscription *models.Subscription) (*models.Subscription, error) {
	return updateReturning(ctx, r.db, subscription)
}

func (r *BunSubscriptionRepository) WithTx(tx bun.IDB) SubscriptionRepository {
	return &BunSubscriptionRepository{db: tx}
}
