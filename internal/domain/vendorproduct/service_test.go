package vendorproduct

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
	"backoffice/internal/domain"
	"backoffice/internal/domain/audit"
	"backoffice/internal/domain/client"
	"backoffice/internal/domain/scope"
)

type mockRepo struct {
	products    map[id.ID]*Product
	hardDeleted []id.ID
	lastFilter  Filter
}

func newMockRepo() *mockRepo {
	return &mockRepo{products: make(map[id.ID]*Product)}
}

func (m *mockRepo) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	if p, ok := m.products[productID]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFound("product", productID.String())
}

func (m *mockRepo) List(ctx context.Context, filter Filter) (domain.ListResult[*Product], error) {
	m.lastFilter = filter
	var items []*Product
	for _, p := range m.products {
		if filter.LowStockOnly && !p.IsLowStock() {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		items = append(items, p)
	}
	return domain.ListResult[*Product]{Items: items, Total: int64(len(items))}, nil
}

func (m *mockRepo) Create(ctx context.Context, p *Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockRepo) Update(ctx context.Context, p *Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockRepo) HardDelete(ctx context.Context, productID id.ID) error {
	m.hardDeleted = append(m.hardDeleted, productID)
	delete(m.products, productID)
	return nil
}

func (m *mockRepo) SKUExists(ctx context.Context, vendorCompanyID id.ID, sku string, excludeID id.ID) (bool, error) {
	for _, p := range m.products {
		if p.VendorCompanyID == vendorCompanyID && p.SKU == sku && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type mockVendorDirectory struct {
	known map[id.ID]id.ID
}

func (m *mockVendorDirectory) ExistsInOrganization(ctx context.Context, orgID, vendorCompanyID id.ID) (bool, error) {
	own, ok := m.known[vendorCompanyID]
	return ok && own == orgID, nil
}

type mockClientRepo struct{}

func (mockClientRepo) GetByID(ctx context.Context, clientID id.ID) (*client.Client, error) {
	return nil, apperror.NewNotFound("client", clientID.String())
}

func (mockClientRepo) NamesByIDs(ctx context.Context, ids []id.ID) (map[id.ID]string, error) {
	return map[id.ID]string{}, nil
}

type fixture struct {
	svc             *Service
	repo            *mockRepo
	orgID           id.ID
	vendorCompanyID id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	orgID := id.New()
	vendorCompanyID := id.New()
	repo := newMockRepo()

	svc := NewService(
		repo,
		&mockVendorDirectory{known: map[id.ID]id.ID{vendorCompanyID: orgID}},
		scope.NewResolver(mockClientRepo{}),
		audit.Nop{},
	)
	return &fixture{svc: svc, repo: repo, orgID: orgID, vendorCompanyID: vendorCompanyID}
}

func orgCtx(orgID id.ID) context.Context {
	p, _ := principal.New("admin-1", principal.ScopeOrganization, orgID)
	return principal.WithPrincipal(context.Background(), p)
}

func (f *fixture) create(t *testing.T, sku string, qty, threshold int) *Product {
	t.Helper()
	p, err := f.svc.Create(orgCtx(f.orgID), CreateInput{
		VendorCompanyID:   f.vendorCompanyID,
		SKU:               sku,
		Name:              "Product " + sku,
		Price:             decimal.NewFromFloat(9.99),
		Currency:          "USD",
		StockQuantity:     qty,
		LowStockThreshold: threshold,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	f := newFixture(t)

	f.create(t, "SKU-1", 10, 5)

	_, err := f.svc.Create(orgCtx(f.orgID), CreateInput{
		VendorCompanyID: f.vendorCompanyID,
		SKU:             "SKU-1",
		Name:            "Duplicate",
		Price:           decimal.NewFromInt(1),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestCreateProduct_ForeignVendorCompany(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(orgCtx(id.New()), CreateInput{
		VendorCompanyID: f.vendorCompanyID,
		SKU:             "SKU-X",
		Name:            "Foreign",
		Price:           decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestProductOps_ForeignOrganizationHidden(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "OWNED", 10, 5)
	foreign := orgCtx(id.New())

	_, err := f.svc.Get(foreign, p.ID)
	assert.True(t, apperror.IsNotFound(err))

	name := "hijack"
	_, err = f.svc.Update(foreign, p.ID, UpdateInput{Name: &name})
	assert.True(t, apperror.IsNotFound(err))

	err = f.svc.Delete(foreign, p.ID)
	assert.True(t, apperror.IsNotFound(err))

	result, err := f.svc.BulkUpdateStock(foreign, []StockUpdate{{ProductID: p.ID, Quantity: 0}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, []string{p.ID.String()}, result.Failed)

	kept, ok := f.repo.products[p.ID]
	require.True(t, ok)
	assert.Equal(t, "Product OWNED", kept.Name)
	assert.Equal(t, 10, kept.StockQuantity)
}

func TestListProducts_OrganizationPinned(t *testing.T) {
	f := newFixture(t)
	f.create(t, "S1", 10, 5)

	_, err := f.svc.List(orgCtx(f.orgID), Filter{})
	require.NoError(t, err)
	assert.Equal(t, f.orgID, f.repo.lastFilter.OrganizationID)
}

func TestListProducts_ForeignVendorCompanyFilter(t *testing.T) {
	f := newFixture(t)
	f.create(t, "S1", 10, 5)

	_, err := f.svc.List(orgCtx(id.New()), Filter{VendorCompanyID: &f.vendorCompanyID})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListLowStock_BoundaryInclusive(t *testing.T) {
	f := newFixture(t)

	atThreshold := f.create(t, "AT", 5, 5)
	f.create(t, "ABOVE", 6, 5)
	below := f.create(t, "BELOW", 4, 5)

	result, err := f.svc.ListLowStock(orgCtx(f.orgID), &f.vendorCompanyID, domain.ListFilter{})
	require.NoError(t, err)

	ids := make(map[id.ID]bool)
	for _, p := range result.Items {
		ids[p.ID] = true
	}
	assert.True(t, ids[atThreshold.ID])
	assert.True(t, ids[below.ID])
	assert.Len(t, result.Items, 2)
}

func TestBulkUpdateStock_PartialSuccess(t *testing.T) {
	f := newFixture(t)

	p1 := f.create(t, "S1", 10, 5)
	p3 := f.create(t, "S3", 10, 5)
	missing := id.New()

	result, err := f.svc.BulkUpdateStock(orgCtx(f.orgID), []StockUpdate{
		{ProductID: p1.ID, Quantity: 20},
		{ProductID: missing, Quantity: 30},
		{ProductID: p3.ID, Quantity: 40},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, []string{missing.String()}, result.Failed)
	assert.Equal(t, 20, f.repo.products[p1.ID].StockQuantity)
	assert.Equal(t, 40, f.repo.products[p3.ID].StockQuantity)
}

func TestBulkUpdateStock_NegativeQuantityFails(t *testing.T) {
	f := newFixture(t)
	p := f.create(t, "S1", 10, 5)

	result, err := f.svc.BulkUpdateStock(orgCtx(f.orgID), []StockUpdate{
		{ProductID: p.ID, Quantity: -1},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, []string{p.ID.String()}, result.Failed)
	assert.Equal(t, 10, f.repo.products[p.ID].StockQuantity)
}

func TestDeleteProduct_SyncedDeactivates(t *testing.T) {
	f := newFixture(t)

	p := f.create(t, "SYNCED", 10, 5)
	p.SyncedConnections = 2

	require.NoError(t, f.svc.Delete(orgCtx(f.orgID), p.ID))

	kept, ok := f.repo.products[p.ID]
	require.True(t, ok)
	assert.False(t, kept.IsActive)
	assert.Empty(t, f.repo.hardDeleted)
}

func TestDeleteProduct_UnsyncedHardDeletes(t *testing.T) {
	f := newFixture(t)

	p := f.create(t, "LOOSE", 10, 5)

	require.NoError(t, f.svc.Delete(orgCtx(f.orgID), p.ID))

	_, ok := f.repo.products[p.ID]
	assert.False(t, ok)
	assert.Equal(t, []id.ID{p.ID}, f.repo.hardDeleted)
}

func TestUpdateProduct_SKUImmutable(t *testing.T) {
	f := newFixture(t)

	p := f.create(t, "FIXED", 10, 5)

	name := "Renamed"
	updated, err := f.svc.Update(orgCtx(f.orgID), p.ID, UpdateInput{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "FIXED", updated.SKU)
	assert.Equal(t, "Renamed", updated.Name)
}
