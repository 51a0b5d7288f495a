package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type BunAccountRepository struct {
	db bun.IDB
}

func NewBunAccountRepository(db bun.IDB) AccountRepository {
	return &BunAccountRepository{db: db}
}

func (r *BunAccountRepository) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	return findOne[models.Account](ctx, r.db, "user_id = ?", userID)
}

func (r *BunAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	return insertReturning(ctx, r.db, account)
}

func (r *BunAccountRepository) UpdateFields(ctx context.Context, userID string, fields map[string]any) error {
	q := r.db.NewUpdate().Model(&models.Account{}).Where("user_id = ?", userID)
	_, err := util.ApplyFieldUpdates(q, fields).Exec(ctx)
	return err
}

func (r *BunAccountRepository) WithTx(tx bun.IDB) AccountRepository {
	return &BunAccountRepository{db: tx}
}
