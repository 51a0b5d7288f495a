package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Account holds the credential record for a user. The password is an
// argon2id hash, never the raw credential.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID        string    `json:"id" bun:",pk"`
	UserID    string    `json:"user_id" bun:",notnull"`
	Password  *string   `json:"-"`
	CreatedAt time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*Account)(nil)

func (a *Account) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		a.CreatedAt = time.Now()
		a.UpdatedAt = time.Now()
	case *bun.UpdateQuery:
		a.UpdatedAt = time.Now()
	}
	return nil
}
