package company

import (
	"context"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

// Repository is the persistence port for companies and their sites.
// Every read is organization-scoped; a row outside the scope behaves as
// if it does not exist.
type Repository interface {
	GetByID(ctx context.Context, orgID, companyID id.ID) (*Company, error)
	List(ctx context.Context, q Query) (domain.ListResult[*Company], error)
	Create(ctx context.Context, c *Company) error
	Update(ctx context.Context, c *Company) error
	SoftDelete(ctx context.Context, orgID, companyID id.ID, by string) error
	Stats(ctx context.Context, q Query) (*Stats, error)
}

// SiteRepository persists the per-company sites.
type SiteRepository interface {
	Create(ctx context.Context, s *Site) error
	ListByCompany(ctx context.Context, companyID id.ID) ([]*Site, error)
}

// CodeGenerator issues unique short codes for companies and sites.
type CodeGenerator interface {
	CompanyCode(ctx context.Context) (string, error)
	SiteCode(ctx context.Context) (string, error)
}
