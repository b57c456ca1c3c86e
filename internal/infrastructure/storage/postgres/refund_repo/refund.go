// Package refund_repo provides the PostgreSQL persistence for the refund
// workflow: requests, per-company settings and aggregate stats.
package refund_repo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/domain/refund"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/internal/infrastructure/storage/postgres/catalog_repo"
)

// RefundRepo implements refund.Repository. Refunds carry only company_id;
// the organization and client bounds go through the companies and clients
// joins.
type RefundRepo struct {
	*catalog_repo.BaseRepo[*refund.Refund]
}

var _ refund.Repository = (*RefundRepo)(nil)

// NewRefundRepo creates the refund repository.
func NewRefundRepo(txm *postgres.TxManager) *RefundRepo {
	return &RefundRepo{
		BaseRepo: catalog_repo.NewBaseRepo(
			txm,
			"refunds",
			postgres.ExtractDBColumns[refund.Refund](),
			func() *refund.Refund { return &refund.Refund{} },
		),
	}
}

func (r *RefundRepo) orgSelect(orgID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.Columns("r")...).
		From("refunds r").
		Join("companies c ON c.id = r.company_id AND c.deleted_at IS NULL").
		Join("clients cl ON cl.id = c.client_id AND cl.deleted_at IS NULL").
		Where(squirrel.Eq{"cl.organization_id": orgID}).
		Where(squirrel.Eq{"r.deleted_at": nil})
}

// GetByID retrieves a refund inside the organization.
func (r *RefundRepo) GetByID(ctx context.Context, orgID, refundID id.ID) (*refund.Refund, error) {
	q := r.orgSelect(orgID).
		Where(squirrel.Eq{"r.id": refundID}).
		Limit(1)

	return r.FindOne(ctx, q, refundID.String())
}

// GetForSettlement fetches a refund without an organization bound. Only
// the settlement callback path may use it.
func (r *RefundRepo) GetForSettlement(ctx context.Context, refundID id.ID) (*refund.Refund, error) {
	return r.BaseRepo.GetByID(ctx, refundID)
}

// cursor is the keyset position: the (created_at, id) of the last row of
// the previous page, ordered newest first.
type cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        id.ID     `json:"id"`
}

func encodeCursor(c cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (cursor, error) {
	var c cursor
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c, apperror.NewValidation("invalid cursor").WithCause(err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, apperror.NewValidation("invalid cursor").WithCause(err)
	}
	return c, nil
}

// List retrieves refunds newest first. A cursor continues from where the
// previous page stopped; without one the offset from the filter applies.
func (r *RefundRepo) List(ctx context.Context, query refund.ListQuery) (domain.CursorResult[*refund.Refund], error) {
	var result domain.CursorResult[*refund.Refund]

	q := r.orgSelect(query.OrganizationID)

	if query.ClientID != nil {
		q = q.Where(squirrel.Eq{"c.client_id": *query.ClientID})
	}
	if query.CompanyID != nil {
		q = q.Where(squirrel.Eq{"r.company_id": *query.CompanyID})
	}
	if query.Status != "" {
		q = q.Where(squirrel.Eq{"r.status": query.Status})
	}

	if query.Cursor != "" {
		pos, err := decodeCursor(query.Cursor)
		if err != nil {
			return result, err
		}
		q = q.Where("(r.created_at, r.id) < (?, ?)", pos.CreatedAt, pos.ID)
	} else if query.Filter.Offset > 0 {
		q = q.Offset(uint64(query.Filter.Offset))
	}

	limit := query.Filter.Limit
	if limit <= 0 {
		limit = 20
	}

	q = q.OrderBy("r.created_at DESC", "r.id DESC").
		Limit(uint64(limit + 1)) // one extra row decides hasMore

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var items []*refund.Refund
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return result, fmt.Errorf("list refunds: %w", err)
	}

	if len(items) > limit {
		items = items[:limit]
		result.HasMore = true
		last := items[len(items)-1]
		next := encodeCursor(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	result.Items = items

	return result, nil
}

// Stats aggregates refund counts and turnaround for the query's bounds.
func (r *RefundRepo) Stats(ctx context.Context, query refund.ListQuery) (*refund.Stats, error) {
	base := r.Builder().
		Select().
		From("refunds r").
		Join("companies c ON c.id = r.company_id AND c.deleted_at IS NULL").
		Join("clients cl ON cl.id = c.client_id AND cl.deleted_at IS NULL").
		Where(squirrel.Eq{"cl.organization_id": query.OrganizationID}).
		Where(squirrel.Eq{"r.deleted_at": nil})

	if query.ClientID != nil {
		base = base.Where(squirrel.Eq{"c.client_id": *query.ClientID})
	}
	if query.CompanyID != nil {
		base = base.Where(squirrel.Eq{"r.company_id": *query.CompanyID})
	}

	stats := &refund.Stats{ByStatus: make(map[refund.Status]int64)}
	querier := r.Querier(ctx)

	byStatusQ := base.Columns("r.status", "COUNT(*) AS count").GroupBy("r.status")
	sql, args, err := byStatusQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status query: %w", err)
	}

	var statusRows []struct {
		Status refund.Status `db:"status"`
		Count  int64         `db:"count"`
	}
	if err := pgxscan.Select(ctx, querier, &statusRows, sql, args...); err != nil {
		return nil, fmt.Errorf("refund status counts: %w", err)
	}
	for _, row := range statusRows {
		stats.ByStatus[row.Status] = row.Count
	}

	completedQ := base.Columns(
		"COUNT(*) AS count",
		"COALESCE(SUM(COALESCE(r.approved_amount, r.requested_amount)), 0) AS total",
		"AVG(EXTRACT(EPOCH FROM (r.completed_at - r.created_at)) / 3600.0) AS avg_hours",
	).Where(squirrel.Eq{"r.status": refund.StatusCompleted})

	sql, args, err = completedQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build completed query: %w", err)
	}

	if err := querier.QueryRow(ctx, sql, args...).
		Scan(&stats.CompletedCount, &stats.CompletedTotal, &stats.AvgProcessingHours); err != nil {
		return nil, fmt.Errorf("refund completed stats: %w", err)
	}

	return stats, nil
}
