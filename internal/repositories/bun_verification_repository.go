package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/models"
)

type BunVerificationRepository struct {
	db bun.IDB
}

func NewBunVerificationRepository(db bun.IDB) VerificationRepository {
	return &BunVerificationRepository{db: db}
}

func (r *BunVerificationRepository) GetByToken(ctx context.Context, token string) (*models.Verification, error) {
	return findOne[models.Verification](ctx, r.db, "token = ?", token)
}

func (r *BunVerificationRepository) Create(ctx context.Context, verification *models.Verification) (*models.Verification, error) {
	return insertReturning(ctx, r.db, verification)
}

func (r *BunVerificationRepository) Delete(ctx context.Context, id string) error {
	_, err := deleteWhere[models.Verification](ctx, r.db, "id = ?", id)
	return err
}

func (r *BunVerificationRepository) DeleteByUserIDAndType(ctx context.Context, userID string, vType models.VerificationType) error {
	_, err := deleteWhere[models.Verification](ctx, r.db, "user_id = ? AND type = ?", userID, vType)
	return err
}

func (r *BunVerificationRepository) WithTx(tx bun.IDB) VerificationRepository {
	return &BunVerificationRepository{db: tx}
}
