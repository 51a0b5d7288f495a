package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/internal/repositories"
	"github.com/shopkit/shopkit/internal/util"
	"github.com/shopkit/shopkit/models"
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*models.Product
	lists    int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*models.Product)}
}

func (r *fakeProductRepo) GetByID(ctx context.Context, tenantID string, id string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProductRepo) GetBySKU(ctx context.Context, tenantID string, sku string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.TenantID == tenantID && p.SKU == sku {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) List(ctx context.Context, tenantID string) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	out := []models.Product{}
	for _, p := range r.products {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *product
	r.products[product.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *product
	r.products[product.ID] = &clone
	result := clone
	return &result, nil
}

func (r *fakeProductRepo) AdjustStock(ctx context.Context, tenantID string, id string, delta int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, ErrProductNotFound
	}
	if p.Stock+delta < 0 {
		return nil, ErrProductNotFound
	}
	p.Stock += delta
	clone := *p
	return &clone, nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, tenantID string, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) WithTx(tx bun.IDB) repositories.ProductRepository { return r }

func newProductServiceForTest() (*ProductService, *fakeProductRepo, *fakeStorage) {
	repo := newFakeProductRepo()
	storage := newFakeStorage()
	cache := newTestCache(storage)
	svc := NewProductService(repo, cache, util.NewMockLogger())
	return svc, repo, storage
}

func TestProductServiceListIsCached(t *testing.T) {
	svc, repo, storage := newProductServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.DefaultTenantID, CreateProductInput{SKU: "sku-1", Name: "Widget", PriceCents: 1500, Stock: 3})
	require.NoError(t, err)

	first, err := svc.List(ctx, models.DefaultTenantID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(ctx, models.DefaultTenantID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.lists, "second list should be served from cache")

	_, ok := storage.value("products:all")
	assert.True(t, ok, "default tenant lists cache under products:all")
}

func TestProductServiceGetUsesDetailKey(t *testing.T) {
	svc, _, storage := newProductServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, models.DefaultTenantID, CreateProductInput{SKU: "sku-1", Name: "Widget"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, models.DefaultTenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "USD", got.Currency)
	assert.True(t, got.Active)

	_, ok := storage.value("products:" + created.ID)
	assert.True(t, ok)
}

func TestProductServiceGetNotFound(t *testing.T) {
	svc, _, _ := newProductServiceForTest()

	_, err := svc.Get(context.Background(), models.DefaultTenantID, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductServiceCreateRejectsDuplicateSKU(t *testing.T) {
	svc, _, _ := newProductServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, models.DefaultTenantID, CreateProductInput{SKU: "sku-1", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, models.DefaultTenantID, CreateProductInput{SKU: "sku-1", Name: "Other"})
	assert.ErrorIs(t, err, ErrDuplicateSKU)
}

func TestProductServiceUpdateInvalidatesCache(t *testing.T) {
	svc, _, _ := newProductServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, models.DefaultTenantID, CreateProductInput{SKU: "sku-1", Name: "Widget", PriceCents: 1000})
	require.NoError(t, err)

	// Warm the detail and list entries.
	_, err = svc.Get(ctx, models.DefaultTenantID, created.ID)
	require.NoError(t, err)
	_, err = svc.List(ctx, models.DefaultTenantID)
	require.NoError(t, err)

	newPrice := int64(2500)
	_, err = svc.Update(ctx, models.DefaultTenantID, created.ID, UpdateProductInput{PriceCents: &newPrice})
	require.NoError(t, err)

	got, err := svc.Get(ctx, models.DefaultTenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, newPrice, got.PriceCents, "read after update must not see the stale cached price")

	list, err := svc.List(ctx, models.DefaultTenantID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, newPrice, list[0].PriceCents)
}

func TestProductServiceDeleteInvalidatesCache(t *testing.T) {
	svc, _, _ := newProductServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, models.DefaultTenantID, CreateProductInput{SKU: "sku-1", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.List(ctx, models.DefaultTenantID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, models.DefaultTenantID, created.ID))

	list, err := svc.List(ctx, models.DefaultTenantID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Get(ctx, models.DefaultTenantID, created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductServiceAdjustStock(t *testing.T) {
	svc, _, _ := newProductServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, models.DefaultTenantID, CreateProductInput{SKU: "sku-1", Name: "Widget", Stock: 5})
	require.NoError(t, err)

	updated, err := svc.AdjustStock(ctx, models.DefaultTenantID, created.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Stock)

	got, err := svc.Get(ctx, models.DefaultTenantID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestProductServiceTenantKeysAreScoped(t *testing.T) {
	svc, _, storage := newProductServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, "acme", CreateProductInput{SKU: "sku-1", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.List(ctx, "acme")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "acme", created.ID)
	require.NoError(t, err)

	_, ok := storage.value("acme:products:all")
	assert.True(t, ok)
	_, ok = storage.value("acme:products:" + created.ID)
	assert.True(t, ok)
	_, ok = storage.value("products:all")
	assert.False(t, ok, "non-default tenants must not share the default namespace")
}
