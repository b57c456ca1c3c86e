package catalog_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/cart"
	"backoffice/internal/infrastructure/storage/postgres"
)

// WidgetRepo implements cart.WidgetConfigRepository. One row per
// (site, kind); params are stored as JSONB.
type WidgetRepo struct {
	txm *postgres.TxManager
}

var _ cart.WidgetConfigRepository = (*WidgetRepo)(nil)

// NewWidgetRepo creates the widget configuration repository.
func NewWidgetRepo(txm *postgres.TxManager) *WidgetRepo {
	return &WidgetRepo{txm: txm}
}

// ListBySite returns every widget configuration of a site.
func (r *WidgetRepo) ListBySite(ctx context.Context, siteID id.ID) ([]cart.WidgetConfig, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("site_id", "kind", "enabled", "params").
		From("site_widgets").
		Where(squirrel.Eq{"site_id": siteID}).
		OrderBy("kind ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	defer rows.Close()

	var configs []cart.WidgetConfig
	for rows.Next() {
		var (
			cfg    cart.WidgetConfig
			params []byte
		)
		if err := rows.Scan(&cfg.SiteID, &cfg.Kind, &cfg.Enabled, &params); err != nil {
			return nil, fmt.Errorf("scan widget: %w", err)
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &cfg.Params); err != nil {
				return nil, fmt.Errorf("decode widget params: %w", err)
			}
		}
		configs = append(configs, cfg)
	}

	return configs, rows.Err()
}

// Upsert writes a widget configuration, replacing any previous row for
// the (site, kind) pair.
func (r *WidgetRepo) Upsert(ctx context.Context, cfg cart.WidgetConfig) error {
	params, err := json.Marshal(cfg.Params)
	if err != nil {
		return fmt.Errorf("encode widget params: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO site_widgets (site_id, kind, enabled, params, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (site_id, kind) DO UPDATE
		SET enabled = EXCLUDED.enabled, params = EXCLUDED.params, updated_at = now()
	`, cfg.SiteID, cfg.Kind, cfg.Enabled, params)
	if err != nil {
		return fmt.Errorf("upsert widget: %w", err)
	}

	return nil
}
