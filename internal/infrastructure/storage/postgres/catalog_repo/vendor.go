package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/vendor"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/vendorcode"
)

// codeRetryAttempts bounds code regeneration when the snapshot-based
// generator loses a race on the shared code space.
const codeRetryAttempts = 3

// VendorRepo implements vendor.Repository.
type VendorRepo struct {
	*BaseRepo[*vendor.Vendor]
	codes *vendorcode.Generator
}

var _ vendor.Repository = (*VendorRepo)(nil)

// NewVendorRepo creates the vendor repository.
func NewVendorRepo(txm *postgres.TxManager, codes *vendorcode.Generator) *VendorRepo {
	return &VendorRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"vendors",
			postgres.ExtractDBColumns[vendor.Vendor](),
			func() *vendor.Vendor { return &vendor.Vendor{} },
		),
		codes: codes,
	}
}

// Create inserts the vendor, regenerating the code on a lost code race.
func (r *VendorRepo) Create(ctx context.Context, v *vendor.Vendor) error {
	for attempt := 0; ; attempt++ {
		err := r.BaseRepo.Create(ctx, v)
		if err == nil {
			return nil
		}
		if attempt >= codeRetryAttempts || !conflictOnConstraint(err, "code") {
			return err
		}

		taken, terr := r.TakenCodes(ctx)
		if terr != nil {
			return terr
		}
		v.Code, terr = r.codes.Generate(v.Name, taken)
		if terr != nil {
			return terr
		}
	}
}

// GetByID retrieves a vendor inside the organization.
func (r *VendorRepo) GetByID(ctx context.Context, orgID, vendorID id.ID) (*vendor.Vendor, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"organization_id": orgID}).
		Where(squirrel.Eq{"id": vendorID}).
		Limit(1)

	return r.FindOne(ctx, q, vendorID.String())
}

// List retrieves the organization's vendors.
func (r *VendorRepo) List(ctx context.Context, orgID id.ID, filter domain.ListFilter) (domain.ListResult[*vendor.Vendor], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"organization_id": orgID})

	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	q = applySearch(q, filter.Search, "name", "code", "slug")

	return r.SelectPage(ctx, q, filter, "name")
}

// SoftDeleteCascade soft-deletes the vendor and all rows hanging off it,
// stamping cascadeID on the children so the deletion can be traced. The
// caller runs this inside a transaction.
func (r *VendorRepo) SoftDeleteCascade(ctx context.Context, orgID, vendorID id.ID, by string, cascadeID id.ID) error {
	now := time.Now().UTC()
	querier := r.querier(ctx)

	res, err := querier.Exec(ctx, `
		UPDATE vendors
		SET deleted_at = $1, deleted_by = $2, version = version + 1
		WHERE id = $3 AND organization_id = $4 AND deleted_at IS NULL
	`, now, by, vendorID, orgID)
	if err != nil {
		return fmt.Errorf("soft delete vendor: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperror.NewNotFound("vendors", vendorID.String())
	}

	_, err = querier.Exec(ctx, `
		UPDATE vendor_products p
		SET deleted_at = $1, deleted_by = $2, cascade_id = $3, is_active = false, version = version + 1
		FROM vendor_companies vc
		WHERE p.vendor_company_id = vc.id
		  AND vc.vendor_id = $4
		  AND p.deleted_at IS NULL
	`, now, by, cascadeID, vendorID)
	if err != nil {
		return fmt.Errorf("cascade vendor products: %w", err)
	}

	_, err = querier.Exec(ctx, `
		UPDATE vendor_connections c
		SET deleted_at = $1, deleted_by = $2, cascade_id = $3, version = version + 1
		FROM vendor_companies vc
		WHERE c.vendor_company_id = vc.id
		  AND vc.vendor_id = $4
		  AND c.deleted_at IS NULL
	`, now, by, cascadeID, vendorID)
	if err != nil {
		return fmt.Errorf("cascade connections: %w", err)
	}

	_, err = querier.Exec(ctx, `
		UPDATE vendor_companies
		SET deleted_at = $1, deleted_by = $2, cascade_id = $3, is_active = false, version = version + 1
		WHERE vendor_id = $4 AND deleted_at IS NULL
	`, now, by, cascadeID, vendorID)
	if err != nil {
		return fmt.Errorf("cascade vendor companies: %w", err)
	}

	return nil
}

// TakenCodes returns every code in use across the shared code space.
// Soft-deleted rows keep their codes reserved.
func (r *VendorRepo) TakenCodes(ctx context.Context) (map[string]struct{}, error) {
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
		return nil, fmt.Errorf("taken codes: %w", err)
	}
	defer rows.Close()

	taken := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		taken[code] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("taken codes: %w", err)
	}

	return taken, nil
}
