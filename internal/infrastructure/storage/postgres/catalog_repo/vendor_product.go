package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/vendorproduct"
	"backoffice/internal/infrastructure/storage/postgres"
)

// VendorProductRepo implements vendorproduct.Repository.
type VendorProductRepo struct {
	*BaseRepo[*vendorproduct.Product]
}

var _ vendorproduct.Repository = (*VendorProductRepo)(nil)

// NewVendorProductRepo creates the vendor product repository.
func NewVendorProductRepo(txm *postgres.TxManager) *VendorProductRepo {
	return &VendorProductRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"vendor_products",
			postgres.ExtractDBColumns[vendorproduct.Product](),
			func() *vendorproduct.Product { return &vendorproduct.Product{} },
		),
	}
}

// List retrieves products matching the filter. The listing is always
// bounded to the filter's organization through the owning vendor.
func (r *VendorProductRepo) List(ctx context.Context, filter vendorproduct.Filter) (domain.ListResult[*vendorproduct.Product], error) {
	q := r.Builder().
		Select(prefixed("p", r.selectCols)...).
		From("vendor_products p").
		Join("vendor_companies vc ON vc.id = p.vendor_company_id AND vc.deleted_at IS NULL").
		Join("vendors v ON v.id = vc.vendor_id AND v.deleted_at IS NULL").
		Where(squirrel.Eq{"v.organization_id": filter.OrganizationID}).
		Where(squirrel.Eq{"p.deleted_at": nil})

	if filter.VendorCompanyID != nil {
		q = q.Where(squirrel.Eq{"p.vendor_company_id": *filter.VendorCompanyID})
	}
	if len(filter.Categories) > 0 {
		q = q.Where("p.categories && ?", filter.Categories)
	}
	if filter.ActiveOnly {
		q = q.Where(squirrel.Eq{"p.is_active": true})
	}
	if filter.LowStockOnly {
		q = q.Where("p.stock_quantity <= p.low_stock_threshold")
	}
	q = applySearch(q, filter.List.Search, "p.name", "p.sku")

	return r.SelectPageAliased(ctx, q, filter.List, "name", "p")
}

// HardDelete removes the product row entirely.
func (r *VendorProductRepo) HardDelete(ctx context.Context, productID id.ID) error {
	return r.Delete(ctx, productID)
}

// SKUExists reports whether a live product under the vendor company
// already uses the SKU, excluding excludeID.
func (r *VendorProductRepo) SKUExists(ctx context.Context, vendorCompanyID id.ID, sku string, excludeID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From("vendor_products").
		Where(squirrel.Eq{"vendor_company_id": vendorCompanyID}).
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Limit(1)

	if !id.IsNil(excludeID) {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}

	return r.exists(ctx, q)
}
