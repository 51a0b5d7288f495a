package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type BunUserRepository struct {
	db bun.IDB
}

func NewBunUserRepository(db bun.IDB) UserRepository {
	return &BunUserRepository{db: db}
}

func (r *BunUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.db, "id = ?", id)
}

func (r *BunUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.db, "email = ?", email)
}

func (r *BunUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return insertReturning(ctx, r.db, user)
}

func (r *BunUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	return updateReturning(ctx, r.db, user)
}

func (r *BunUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	q := r.db.NewUpdate().Model(&models.User{}).Where("id = ?", id)
	_, err := util.ApplyFieldUpdates(q, fields).Exec(ctx)
	return err
}

func (r *BunUserRepository) WithTx(tx bun.IDB) UserRepository {
	return &BunUserRepository{db: tx}
}
