package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/connection"
	"backoffice/internal/domain/vendor"
	"backoffice/internal/domain/vendorproduct"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/vendorcode"
)

// VendorCompanyRepo implements vendor.CompanyRepository plus the vendor
// company directory the connection and product services check against.
type VendorCompanyRepo struct {
	*BaseRepo[*vendor.VendorCompany]
	codes *vendorcode.Generator
}

var (
	_ vendor.CompanyRepository             = (*VendorCompanyRepo)(nil)
	_ connection.VendorCompanyDirectory    = (*VendorCompanyRepo)(nil)
	_ vendorproduct.VendorCompanyDirectory = (*VendorCompanyRepo)(nil)
)

// NewVendorCompanyRepo creates the vendor company repository.
func NewVendorCompanyRepo(txm *postgres.TxManager, codes *vendorcode.Generator) *VendorCompanyRepo {
	return &VendorCompanyRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"vendor_companies",
			postgres.ExtractDBColumns[vendor.VendorCompany](),
			func() *vendor.VendorCompany { return &vendor.VendorCompany{} },
		),
		codes: codes,
	}
}

// Create inserts the vendor company, regenerating the code on a lost race.
// Vendor companies draw from the same code space as vendors.
func (r *VendorCompanyRepo) Create(ctx context.Context, vc *vendor.VendorCompany) error {
	for attempt := 0; ; attempt++ {
		err := r.BaseRepo.Create(ctx, vc)
		if err == nil {
			return nil
		}
		if attempt >= codeRetryAttempts || !conflictOnConstraint(err, "code") {
			return err
		}

		taken, terr := r.takenCodes(ctx)
		if terr != nil {
			return terr
		}
		vc.Code, terr = r.codes.Generate(vc.Name, taken)
		if terr != nil {
			return terr
		}
	}
}

// ListByVendor retrieves the trading entities under a vendor.
func (r *VendorCompanyRepo) ListByVendor(ctx context.Context, vendorID id.ID, filter domain.ListFilter) (domain.ListResult[*vendor.VendorCompany], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"vendor_id": vendorID})

	q = applySearch(q, filter.Search, "name", "code", "slug")

	return r.SelectPage(ctx, q, filter, "name")
}

// SlugExists reports whether a live vendor company under the vendor
// already uses the slug, excluding excludeID.
func (r *VendorCompanyRepo) SlugExists(ctx context.Context, vendorID id.ID, slug string, excludeID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From("vendor_companies").
		Where(squirrel.Eq{"vendor_id": vendorID}).
		Where(squirrel.Eq{"slug": slug}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Limit(1)

	if !id.IsNil(excludeID) {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}

	return r.exists(ctx, q)
}

// ExistsInOrganization reports whether the vendor company's owning vendor
// belongs to the organization.
func (r *VendorCompanyRepo) ExistsInOrganization(ctx context.Context, orgID, vendorCompanyID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From("vendor_companies vc").
		Join("vendors v ON v.id = vc.vendor_id AND v.deleted_at IS NULL").
		Where(squirrel.Eq{"vc.id": vendorCompanyID}).
		Where(squirrel.Eq{"v.organization_id": orgID}).
		Where(squirrel.Eq{"vc.deleted_at": nil}).
		Limit(1)

	return r.exists(ctx, q)
}

func (r *VendorCompanyRepo) takenCodes(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.querier(ctx).Query(ctx, `
		SELECT code FROM vendors
		UNION
		SELECT code FROM clients
		UNION
		SELECT code FROM companies
		UNION
		SELECT code FROM vendor_companies
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		taken[code] = struct{}{}
	}
	return taken, rows.Err()
}
