package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/client"
	"backoffice/internal/infrastructure/storage/postgres"
)

// ClientRepo implements client.Repository. The back office only reads
// clients; their lifecycle belongs to the provisioning system.
type ClientRepo struct {
	*BaseRepo[*client.Client]
}

var _ client.Repository = (*ClientRepo)(nil)

// NewClientRepo creates the client repository.
func NewClientRepo(txm *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		BaseRepo: NewBaseRepo(
			txm,
			"clients",
			postgres.ExtractDBColumns[client.Client](),
			func() *client.Client { return &client.Client{} },
		),
	}
}

// NamesByIDs returns display names keyed by id for live clients.
func (r *ClientRepo) NamesByIDs(ctx context.Context, ids []id.ID) (map[id.ID]string, error) {
	names := make(map[id.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	q := r.Builder().
		Select("id", "name").
		From("clients").
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		ID   id.ID  `db:"id"`
		Name string `db:"name"`
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("client names: %w", err)
	}

	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
