package refund_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain/refund"
	"backoffice/internal/infrastructure/storage/postgres"
)

// OrderRepo implements refund.OrderDirectory over the orders table the
// storefront writes. The back office only reads the columns refund
// validation needs.
type OrderRepo struct {
	txm *postgres.TxManager
}

var _ refund.OrderDirectory = (*OrderRepo)(nil)

// NewOrderRepo creates the order directory.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	return &OrderRepo{txm: txm}
}

// GetByID retrieves the order slice needed to validate a refund.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*refund.Order, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "company_id", "customer_id", "total", "currency", "order_date").
		From("orders").
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var order refund.Order
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("orders", orderID.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return &order, nil
}
