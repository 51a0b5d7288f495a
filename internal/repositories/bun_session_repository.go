package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/models"
)

type BunSessionRepository struct {
	db bun.IDB
}

func NewBunSessionRepository(db bun.IDB) SessionRepository {
	return &BunSessionRepository{db: db}
}

func (r *BunSessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	return findOne[models.Session](ctx, r.db, "token = ?", token)
}

func (r *BunSessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	return insertReturning(ctx, r.db, session)
}

func (r *BunSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := deleteWhere[models.Session](ctx, r.db, "id = ?", id)
	return err
}

func (r *BunSessionRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := deleteWhere[models.Session](ctx, r.db, "user_id = ?", userID)
	return err
}

// DeleteByUserIDExcept revokes every session of the user but the one
// named by keepID.
func (r *BunSessionRepository) DeleteByUserIDExcept(ctx context.Context, userID string, keepID string) error {
	_, err := deleteWhere[models.Session](ctx, r.db, "user_id = ? AND id != ?", userID, keepID)
	return err
}

func (r *BunSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return deleteWhere[models.Session](ctx, r.db, "expires_at < ?", time.Now())
}

func (r *BunSessionRepository) WithTx(tx bun.IDB) SessionRepository {
	return &BunSessionRepository{db: tx}
}
