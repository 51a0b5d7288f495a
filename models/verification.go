package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type VerificationType string

const (
	VerificationTypeEmail         VerificationType = "email"
	VerificationTypePasswordReset VerificationType = "password_reset"
)

func (t VerificationType) String() string {
	return string(t)
}

// Verification is a single-use token record for email verification and
// password resets. The token column stores the hash, not the raw token.
type Verification struct {
	bun.BaseModel `bun:"table:verifications,alias:v"`

	ID        string           `json:"id" bun:",pk"`
	UserID    string           `json:"user_id" bun:",notnull"`
	Type      VerificationType `json:"type" bun:",notnull"`
	Token     string           `json:"-" bun:",unique,notnull"`
	ExpiresAt time.Time        `json:"expires_at" bun:",notnull"`
	CreatedAt time.Time        `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*Verification)(nil)

func (v *Verification) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		v.CreatedAt = time.Now()
	}
	return nil
}
