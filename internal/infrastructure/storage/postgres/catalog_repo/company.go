package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/company"
	"backoffice/internal/domain/scope"
	"backoffice/internal/infrastructure/storage/postgres"
)

// CompanyRepo implements company.Repository and scope.CompanyDirectory.
// Companies carry no organization column; the organization bound goes
// through the owning client.
type CompanyRepo struct {
	*BaseRepo[*company.Company]
}

var (
	_ company.Repository     = (*CompanyRepo)(nil)
	_ scope.CompanyDirectory = (*CompanyRepo)(nil)
)

// NewCompanyRepo creates the company repository.
func NewCompanyRepo(txm *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"companies",
			postgres.ExtractDBColumns[company.Company](),
			func() *company.Company { return &company.Company{} },
		),
	}
}

// orgSelect bounds a company select to an organization via the client join.
func (r *CompanyRepo) orgSelect(orgID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(prefixed("c", r.selectCols)...).
		From("companies c").
		Join("clients cl ON cl.id = c.client_id AND cl.deleted_at IS NULL").
		Where(squirrel.Eq{"cl.organization_id": orgID}).
		Where(squirrel.Eq{"c.deleted_at": nil})
}

// GetByID retrieves a company inside the organization.
func (r *CompanyRepo) GetByID(ctx context.Context, orgID, companyID id.ID) (*company.Company, error) {
	q := r.orgSelect(orgID).
		Where(squirrel.Eq{"c.id": companyID}).
		Limit(1)

	return r.FindOne(ctx, q, companyID.String())
}

// List retrieves companies matching the resolved query.
func (r *CompanyRepo) List(ctx context.Context, query company.Query) (domain.ListResult[*company.Company], error) {
	q := r.orgSelect(query.OrganizationID)

	if query.ClientID != nil {
		q = q.Where(squirrel.Eq{"c.client_id": *query.ClientID})
	}
	if query.Filter.Status != "" {
		q = q.Where(squirrel.Eq{"c.status": query.Filter.Status})
	}
	q = applySearch(q, query.Filter.Search, "c.name", "c.code", "c.slug")

	return r.SelectPageAliased(ctx, q, query.Filter, "name", "c")
}

// SoftDelete marks a company deleted if it belongs to the organization.
func (r *CompanyRepo) SoftDelete(ctx context.Context, orgID, companyID id.ID, by string) error {
	inOrg, err := r.inOrganization(ctx, orgID, companyID)
	if err != nil {
		return err
	}
	if !inOrg {
		return apperror.NewNotFound("companies", companyID.String())
	}
	return r.BaseRepo.SoftDelete(ctx, companyID, by)
}

// Stats aggregates company counts for the resolved query.
func (r *CompanyRepo) Stats(ctx context.Context, query company.Query) (*company.Stats, error) {
	base := r.Builder().
		Select().
		From("companies c").
		Join("clients cl ON cl.id = c.client_id AND cl.deleted_at IS NULL").
		Where(squirrel.Eq{"cl.organization_id": query.OrganizationID}).
		Where(squirrel.Eq{"c.deleted_at": nil})

	if query.ClientID != nil {
		base = base.Where(squirrel.Eq{"c.client_id": *query.ClientID})
	}

	stats := &company.Stats{}

	totalsQ := base.Columns(
		"COUNT(*) AS total",
		"COUNT(*) FILTER (WHERE c.status = 'ACTIVE') AS active",
	)
	sql, args, err := totalsQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build totals query: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&stats.TotalCompanies, &stats.ActiveCompanies); err != nil {
		return nil, fmt.Errorf("company totals: %w", err)
	}

	byClientQ := base.Columns("c.client_id", "COUNT(*) AS count").
		GroupBy("c.client_id").
		OrderBy("count DESC")
	sql, args, err = byClientQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build breakdown query: %w", err)
	}

	var rows []struct {
		ClientID id.ID `db:"client_id"`
		Count    int64 `db:"count"`
	}
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("company breakdown: %w", err)
	}

	stats.ByClient = make([]company.ClientCount, 0, len(rows))
	for _, row := range rows {
		stats.ByClient = append(stats.ByClient, company.ClientCount{
			ClientID: row.ClientID,
			Count:    row.Count,
		})
	}

	return stats, nil
}

// OwnershipByID implements scope.CompanyDirectory. Soft-deleted companies
// have no ownership.
func (r *CompanyRepo) OwnershipByID(ctx context.Context, companyID id.ID) (scope.Ownership, error) {
	q := r.Builder().
		Select("c.id", "c.client_id", "cl.organization_id").
		From("companies c").
		Join("clients cl ON cl.id = c.client_id AND cl.deleted_at IS NULL").
		Where(squirrel.Eq{"c.id": companyID}).
		Where(squirrel.Eq{"c.deleted_at": nil}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return scope.Ownership{}, fmt.Errorf("build query: %w", err)
	}

	var row struct {
		ID             id.ID `db:"id"`
		ClientID       id.ID `db:"client_id"`
		OrganizationID id.ID `db:"organization_id"`
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return scope.Ownership{}, apperror.NewNotFound("companies", companyID.String())
		}
		return scope.Ownership{}, fmt.Errorf("company ownership: %w", err)
	}

	return scope.Ownership{
		CompanyID:      row.ID,
		ClientID:       row.ClientID,
		OrganizationID: row.OrganizationID,
	}, nil
}

func (r *CompanyRepo) inOrganization(ctx context.Context, orgID, companyID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From("companies c").
		Join("clients cl ON cl.id = c.client_id").
		Where(squirrel.Eq{"c.id": companyID}).
		Where(squirrel.Eq{"cl.organization_id": orgID}).
		Where(squirrel.Eq{"c.deleted_at": nil}).
		Limit(1)

	return r.exists(ctx, q)
}
