package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/models"
)

// Repository interfaces for data access

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	WithTx(tx bun.IDB) UserRepository
}

type AccountRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	UpdateFields(ctx context.Context, userID string, fields map[string]any) error
	WithTx(tx bun.IDB) AccountRepository
}

type SessionRepository interface {
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteByUserIDExcept(ctx context.Context, userID string, keepID string) error
	DeleteExpired(ctx context.Context) (int64, error)
	WithTx(tx bun.IDB) SessionRepository
}

type VerificationRepository interface {
	GetByToken(ctx context.Context, token string) (*models.Verification, error)
	Create(ctx context.Context, verification *models.Verification) (*models.Verification, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserIDAndType(ctx context.Context, userID string, vType models.VerificationType) error
	WithTx(tx bun.IDB) VerificationRepository
}

type ProductRepository interface {
	GetByID(ctx context.Context, tenantID string, id string) (*models.Product, error)
	GetBySKU(ctx context.Context, tenantID string, sku string) (*models.Product, error)
	List(ctx context.Context, tenantID string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	AdjustStock(ctx context.Context, tenantID string, id string, delta int) (*models.Product, error)
	Delete(ctx context.Context, tenantID string, id string) error
	WithTx(tx bun.IDB) ProductRepository
}

type PaymentRepository interface {
	GetByID(ctx context.Context, tenantID string, id string) (*models.Payment, error)
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*models.Payment, error)
	ListByUserID(ctx context.Context, tenantID string, userID string) ([]models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	WithTx(tx bun.IDB) PaymentRepository
}

type SubscriptionRepository interface {
	GetByID(ctx context.Context, tenantID string, id string) (*models.Subscription, error)
	GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*models.Subscription, error)
	ListByUserID(ctx context.Context, tenantID string, userID string) ([]models.Subscription, error)
	Create(ctx context.Context, subscription *models.Subscription) (*models.Subscription, error)
	Update(ctx context.Context, subscription *models.Subscription) (*models.Subscription, error)
	WithTx(tx bun.IDB) SubscriptionRepository
}

type TokenRepository interface {
	Generate() (string, error)
	Hash(token string) string
	Encrypt(token string) (string, error)
	Decrypt(encrypted string) (string, error)
}
