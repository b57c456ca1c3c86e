package refund_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/refund"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/internal/infrastructure/storage/postgres/catalog_repo"
)

// SettingsRepo implements refund.SettingsRepository. One row per company;
// the unique constraint on company_id backs the lazy-create race in the
// service.
type SettingsRepo struct {
	*catalog_repo.BaseRepo[*refund.Settings]
}

var _ refund.SettingsRepository = (*SettingsRepo)(nil)

// NewSettingsRepo creates the refund settings repository.
func NewSettingsRepo(txm *postgres.TxManager) *SettingsRepo {
	return &SettingsRepo{
		BaseRepo: catalog_repo.NewBaseRepo(
			txm,
			"refund_settings",
			postgres.ExtractDBColumns[refund.Settings](),
			func() *refund.Settings { return &refund.Settings{} },
		),
	}
}

// GetByCompany retrieves the settings row for a company.
func (r *SettingsRepo) GetByCompany(ctx context.Context, companyID id.ID) (*refund.Settings, error) {
	q := r.Builder().
		Select(r.Columns("")...).
		From("refund_settings").
		Where(squirrel.Eq{"company_id": companyID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Limit(1)

	return r.FindOne(ctx, q, companyID.String())
}
