package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// findOne loads a single row matching the condition, mapping a missing
// row to a nil record so callers can treat absence as a normal outcome.
func findOne[T any](ctx context.Context, db bun.IDB, where string, args ...any) (*T, error) {
	record := new(T)
	err := db.NewSelect().Model(record).Where(where, args...).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// listNewestFirst loads every row matching the condition, most recent
// first.
func listNewestFirst[T any](ctx context.Context, db bun.IDB, where string, args ...any) ([]T, error) {
	var records []T
	err := db.NewSelect().
		Model(&records).
		Where(where, args...).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// insertReturning inserts the model and re-reads it in the same
// transaction so database-assigned defaults land back on the struct.
func insertReturning[T any](ctx context.Context, db bun.IDB, model *T) (*T, error) {
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
			return err
		}
		return tx.NewSelect().Model(model).WherePK().Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// updateReturning is insertReturning for full-row updates by primary key.
func updateReturning[T any](ctx context.Context, db bun.IDB, model *T) (*T, error) {
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model(model).WherePK().Exec(ctx); err != nil {
			return err
		}
		return tx.NewSelect().Model(model).WherePK().Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

// deleteWhere removes every row matching the condition and reports how
// many were deleted.
func deleteWhere[T any](ctx context.Context, db bun.IDB, where string, args ...any) (int64, error) {
	res, err := db.NewDelete().Model(new(T)).Where(where, args...).Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
