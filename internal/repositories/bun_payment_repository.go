package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/models"
)

type BunPaymentRepository struct {
	db bun.IDB
}

func NewBunPaymentRepository(db bun.IDB) PaymentRepository {
	return &BunPaymentRepository{db: db}
}

func (r *BunPaymentRepository) GetByID(ctx context.Context, tenantID string, id string) (*models.Payment, error) {
	return findOne[models.Payment](ctx, r.db, "tenant_id = ? AND id = ?", tenantID, id)
}

// GetByProviderPaymentID looks a payment up by the provider's reference.
// Webhook events carry only the provider ID, never our row ID.
func (r *BunPaymentRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	return findOne[models.Payment](ctx, r.db, "provider_payment_id = ?", providerPaymentID)
}

func (r *BunPaymentRepository) ListByUserID(ctx context.Context, tenantID string, userID string) ([]models.Payment, error) {
	return listNewestFirst[models.Payment](ctx, r.db, "tenant_id = ? AND user_id = ?", tenantID, userID)
}

func (r *BunPaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	return insertReturning(ctx, r.db, payment)
}

func (r *BunPaymentRepository) Update(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	return updateReturning(ctx, r.db, payment)
}

func (r *BunPaymentRepository) WithTx(tx bun.IDB) PaymentRepository {
	return &BunPaymentRepository{db: tx}
}
