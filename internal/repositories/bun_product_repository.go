package repositories

import (
	"context"
	"errors"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/models"
)

// ErrInsufficientStock is returned when a stock adjustment would take a
// product below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

type BunProductRepository struct {
	db bun.IDB
}

func NewBunProductRepository(db bun.IDB) ProductRepository {
	return &BunProductRepository{db: db}
}

func (r *BunProductRepository) GetByID(ctx context.Context, tenantID string, id string) (*models.Product, error) {
	return findOne[models.Product](ctx, r.db, "tenant_id = ? AND id = ?", tenantID, id)
}

func (r *BunProductRepository) GetBySKU(ctx context.Context, tenantID string, sku string) (*models.Product, error) {
	return findOne[models.Product](ctx, r.db, "tenant_id = ? AND sku = ?", tenantID, sku)
}

func (r *BunProductRepository) List(ctx context.Context, tenantID string) ([]models.Product, error) {
	return listNewestFirst[models.Product](ctx, r.db, "tenant_id = ?", tenantID)
}

func (r *BunProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	return insertReturning(ctx, r.db, product)
}

func (r *BunProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	return updateReturning(ctx, r.db, product)
}

// AdjustStock applies a stock delta inside a transaction, guarding the
// update with the delta itself so concurrent adjustments cannot oversell.
func (r *BunProductRepository) AdjustStock(ctx context.Context, tenantID string, id string, delta int) (*models.Product, error) {
	product := new(models.Product)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(product).
			Set("stock = stock + ?", delta).
			Where("tenant_id = ? AND id = ? AND stock + ? >= 0", tenantID, id, delta).
			Exec(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientStock
		}

		return tx.NewSelect().
			Model(product).
			Where("tenant_id = ? AND id = ?", tenantID, id).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *BunProductRepository) Delete(ctx context.Context, tenantID string, id string) error {
	_, err := deleteWhere[models.Product](ctx, r.db, "tenant_id = ? AND id = ?", tenantID, id)
	return err
}

func (r *BunProductRepository) WithTx(tx bun.IDB) ProductRepository {
	return &BunProductRepository{db: tx}
}
