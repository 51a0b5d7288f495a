package services

import (
	"context"
	"errors"

	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateSKU     = errors.New("a product with this SKU already exists")
	ErrProductNotActive = errors.New("product is not active")
)

// ProductService owns the catalog, serving reads through the resource
// cache and invalidating it after every successful write.
type ProductService struct {
	repo   repositories.ProductRepository
	cache  *ResourceCache
	logger models.Logger
}

func NewProductService(repo repositories.ProductRepository, cache *ResourceCache, logger models.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// productResource scopes cache keys per tenant: the default tenant keeps
// the bare "products" namespace, other tenants get their own.
func productResource(tenantID string) string {
	if tenantID == "" || tenantID == models.DefaultTenantID {
		return "products"
	}
	return tenantID + ":products"
}

type CreateProductInput struct {
	SKU         string `json:"sku" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	Currency    string `json:"currency"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

type UpdateProductInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	Currency    *string `json:"currency,omitempty"`
	Stock       *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active,omitempty"`
}

// List returns the tenant's catalog, cached under "products:all".
func (s *ProductService) List(ctx context.Context, tenantID string) ([]models.Product, error) {
	key := ListKey(productResource(tenantID))
	return CachedJSON(ctx, s.cache, key, s.cache.ListTTL(), func(ctx context.Context) ([]models.Product, error) {
		return s.repo.List(ctx, tenantID)
	})
}

// Get returns one product, cached under "products:{id}".
func (s *ProductService) Get(ctx context.Context, tenantID string, id string) (*models.Product, error) {
	key := DetailKey(productResource(tenantID), id)
	product, err := CachedJSON(ctx, s.cache, key, s.cache.DetailTTL(), func(ctx context.Context) (*models.Product, error) {
		product, err := s.repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, tenantID string, input CreateProductInput) (*models.Product, error) {
	existing, err := s.repo.GetBySKU(ctx, tenantID, input.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateSKU
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	product := &models.Product{
		ID:          util.GenerateUUID(),
		TenantID:    tenantID,
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Currency:    currency,
		Stock:       input.Stock,
		Active:      true,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tenantID, created.ID)
	return created, nil
}

func (s *ProductService) Update(ctx context.Context, tenantID string, id string, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.Currency != nil {
		product.Currency = *input.Currency
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Active != nil {
		product.Active = *input.Active
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tenantID, id)
	return updated, nil
}

// AdjustStock applies a signed stock delta, typically from a fulfilled
// payment.
func (s *ProductService) AdjustStock(ctx context.Context, tenantID string, id string, delta int) (*models.Product, error) {
	product, err := s.repo.AdjustStock(ctx, tenantID, id, delta)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tenantID, id)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, tenantID string, id string) error {
	product, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	s.invalidate(ctx, tenantID, id)
	return nil
}

// invalidate drops both the detail entry and the list entry after a write,
// awaited so a read issued after the write returns cannot see stale data.
func (s *ProductService) invalidate(ctx context.Context, tenantID string, id string) {
	resource := productResource(tenantID)
	s.cache.Invalidate(ctx, DetailKey(resource, id), ListKey(resource))
}
