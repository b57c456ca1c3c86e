package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/connection"
	"backoffice/internal/infrastructure/storage/postgres"
)

// ConnectionRepo implements connection.Repository.
type ConnectionRepo struct {
	*BaseRepo[*connection.Connection]
}

var _ connection.Repository = (*ConnectionRepo)(nil)

// NewConnectionRepo creates the connection repository.
func NewConnectionRepo(txm *postgres.TxManager) *ConnectionRepo {
	return &ConnectionRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"vendor_connections",
			postgres.ExtractDBColumns[connection.Connection](),
			func() *connection.Connection { return &connection.Connection{} },
		),
	}
}

// GetByPair retrieves the live connection for a (vendorCompany, company)
// pair. At most one can exist.
func (r *ConnectionRepo) GetByPair(ctx context.Context, vendorCompanyID, companyID id.ID) (*connection.Connection, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"vendor_company_id": vendorCompanyID}).
		Where(squirrel.Eq{"company_id": companyID}).
		Limit(1)

	return r.FindOne(ctx, q, vendorCompanyID.String()+"/"+companyID.String())
}

// List retrieves connections matching the filter. The listing is always
// bounded to the filter's organization through the owning vendor.
func (r *ConnectionRepo) List(ctx context.Context, filter connection.Filter) (domain.ListResult[*connection.Connection], error) {
	q := r.Builder().
		Select(prefixed("cn", r.selectCols)...).
		From("vendor_connections cn").
		Join("vendor_companies vc ON vc.id = cn.vendor_company_id AND vc.deleted_at IS NULL").
		Join("vendors v ON v.id = vc.vendor_id AND v.deleted_at IS NULL").
		Where(squirrel.Eq{"v.organization_id": filter.OrganizationID}).
		Where(squirrel.Eq{"cn.deleted_at": nil})

	if filter.VendorCompanyID != nil {
		q = q.Where(squirrel.Eq{"cn.vendor_company_id": *filter.VendorCompanyID})
	}
	if filter.CompanyID != nil {
		q = q.Where(squirrel.Eq{"cn.company_id": *filter.CompanyID})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"cn.status": filter.Status})
	}

	return r.SelectPageAliased(ctx, q, filter.List, "created_at", "cn")
}
