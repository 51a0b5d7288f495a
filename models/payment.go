package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the payment state machine permits a
// transition from s to next. Terminal states only allow the
// succeeded→refunded edge.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusSucceeded || next == PaymentStatusFailed
	case PaymentStatusSucceeded:
		return next == PaymentStatusRefunded
	}
	return false
}

type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:pay"`

	ID                string        `json:"id" bun:",pk"`
	TenantID          string        `json:"tenant_id" bun:",notnull"`
	UserID            string        `json:"user_id" bun:",notnull"`
	ProviderPaymentID string        `json:"provider_payment_id" bun:",unique"`
	AmountCents       int64         `json:"amount_cents" bun:",notnull"`
	Currency          string        `json:"currency" bun:",notnull,default:'USD'"`
	Status            PaymentStatus `json:"status" bun:",notnull,default:'pending'"`
	CreatedAt         time.Time     `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time     `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*Payment)(nil)

func (p *Payment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		p.CreatedAt = time.Now()
		p.UpdatedAt = time.Now()
	case *bun.UpdateQuery:
		p.UpdatedAt = time.Now()
	}
	return nil
}
