package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:sub"`

	ID                     string             `json:"id" bun:",pk"`
	TenantID               string             `json:"tenant_id" bun:",notnull"`
	UserID                 string             `json:"user_id" bun:",notnull"`
	Plan                   string             `json:"plan" bun:",notnull"`
	ProviderSubscriptionID string             `json:"provider_subscription_id" bun:",unique"`
	Status                 SubscriptionStatus `json:"status" bun:",notnull,default:'active'"`
	CurrentPeriodEnd       time.Time          `json:"current_period_end"`
	CreatedAt              time.Time          `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt              time.Time          `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*Subscription)(nil)

func (s *Subscription) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		s.CreatedAt = time.Now()
		s.UpdatedAt = time.Now()
	case *bun.UpdateQuery:
		s.UpdatedAt = time.Now()
	}
	return nil
}
