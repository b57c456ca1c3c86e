package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/cart"
	"backoffice/internal/domain/company"
	"backoffice/internal/infrastructure/storage/postgres"
)

// SiteRepo implements company.SiteRepository and cart.SiteDirectory.
type SiteRepo struct {
	*BaseRepo[*company.Site]
}

var (
	_ company.SiteRepository = (*SiteRepo)(nil)
	_ cart.SiteDirectory     = (*SiteRepo)(nil)
)

// NewSiteRepo creates the site repository.
func NewSiteRepo(txm *postgres.TxManager) *SiteRepo {
	return &SiteRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"sites",
			postgres.ExtractDBColumns[company.Site](),
			func() *company.Site { return &company.Site{} },
		),
	}
}

// ListByCompany returns all live sites of a company, default site first.
func (r *SiteRepo) ListByCompany(ctx context.Context, companyID id.ID) ([]*company.Site, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"company_id": companyID}).
		OrderBy("is_default DESC", "name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sites []*company.Site
	if err := pgxscan.Select(ctx, r.querier(ctx), &sites, sql, args...); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	return sites, nil
}

// CompanyIDBySite resolves a live site to its owning company.
func (r *SiteRepo) CompanyIDBySite(ctx context.Context, siteID id.ID) (id.ID, error) {
	q := r.Builder().
		Select("company_id").
		From("sites").
		Where(squirrel.Eq{"id": siteID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return id.Nil(), fmt.Errorf("build query: %w", err)
	}

	var companyID id.ID
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return id.Nil(), apperror.NewNotFound("sites", siteID.String())
		}
		return id.Nil(), fmt.Errorf("site company: %w", err)
	}

	return companyID, nil
}
