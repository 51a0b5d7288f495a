package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          string    `json:"id" bun:",pk"`
	TenantID    string    `json:"tenant_id" bun:",notnull"`
	SKU         string    `json:"sku" bun:"sku,unique,notnull"`
	Name        string    `json:"name" bun:",notnull"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents" bun:",notnull"`
	Currency    string    `json:"currency" bun:",notnull,default:'USD'"`
	Stock       int       `json:"stock" bun:",notnull,default:0"`
	Active      bool      `json:"active" bun:",notnull,default:true"`
	CreatedAt   time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `json:"updated_at" bun:",nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*Product)(nil)

func (p *Product) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		p.CreatedAt = time.Now()
		p.UpdatedAt = time.Now()
	case *bun.UpdateQuery:
		p.UpdatedAt = time.Now()
	}
	return nil
}
