// Package catalog_repo provides PostgreSQL implementations for the
// tenant-scoped repositories. All repos share a single database; row
// visibility is bounded by organization joins, not by separate schemas.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
	"backoffice/internal/infrastructure/storage/postgres"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// BaseRepo provides common CRUD operations for soft-deletable entities.
// Embed this in specific repositories.
type BaseRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	selectCols []string
	newFn      func() T
}

// NewBaseRepo creates a base repository bound to a transaction manager.
func NewBaseRepo[T any](
	txm *postgres.TxManager,
	tableName string,
	selectCols []string,
	newFn func() T,
) *BaseRepo[T] {
	return &BaseRepo[T]{
		txm:        txm,
		tableName:  tableName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Querier exposes the active querier (transaction or pool) to embedding
// repositories outside this package.
func (r *BaseRepo[T]) Querier(ctx context.Context) postgres.Querier {
	return r.querier(ctx)
}

// Columns returns the select columns, alias-qualified when alias is set.
func (r *BaseRepo[T]) Columns(alias string) []string {
	if alias == "" {
		return r.selectCols
	}
	return prefixed(alias, r.selectCols)
}

// Create inserts a new entity using its "db" tags.
func (r *BaseRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	// Filter to only include columns that exist in DB
	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return apperror.NewConflict("duplicate key").
				WithDetail("entity", r.tableName).
				WithDetail("constraint", constraint).
				WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}

	return nil
}

// Update modifies an existing entity with optimistic locking.
func (r *BaseRepo[T]) Update(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	// Exclude immutable fields from SET
	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" {
			continue // never update ID
		}
		if col == "version" {
			continue // version is managed by repo (optimistic locking)
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}) // optimistic lock: expect current version

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return apperror.NewConflict("duplicate key").
				WithDetail("entity", r.tableName).
				WithDetail("constraint", constraint).
				WithCause(err)
		}
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}

	return nil
}

// baseSelect creates a SELECT builder over live (not soft-deleted) rows.
func (r *BaseRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"deleted_at": nil})
}

// GetByID retrieves a live entity by ID.
func (r *BaseRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)

	return r.FindOne(ctx, q, entityID.String())
}

// FindOne executes a SELECT query and returns a single entity.
func (r *BaseRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, ref)
		}
		return entity, fmt.Errorf("get %s: %w", r.tableName, err)
	}

	return entity, nil
}

// SelectPage counts q's full result set, then applies ordering and
// pagination and scans the page.
func (r *BaseRepo[T]) SelectPage(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter, defaultSort string) (domain.ListResult[T], error) {
	return r.SelectPageAliased(ctx, q, filter, defaultSort, "")
}

// SelectPageAliased is SelectPage for joined queries: alias qualifies the
// ORDER BY column so it cannot collide with joined tables.
func (r *BaseRepo[T]) SelectPageAliased(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter, defaultSort, alias string) (domain.ListResult[T], error) {
	var result domain.ListResult[T]

	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	orderBy, err := r.parseOrderBy(filter, defaultSort)
	if err != nil {
		return result, err
	}
	if alias != "" {
		orderBy = alias + "." + orderBy
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}

	return result, nil
}

// SoftDelete stamps the soft-delete markers on a live row.
func (r *BaseRepo[T]) SoftDelete(ctx context.Context, entityID id.ID, by string) error {
	now := time.Now().UTC()

	q := r.Builder().
		Update(r.tableName).
		Set("deleted_at", now).
		Set("deleted_by", by).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}

	return nil
}

// Delete performs physical removal from the database.
func (r *BaseRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	q := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperror.NewConflict("cannot delete: object is referenced elsewhere").
				WithDetail("entity", r.tableName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}

	return nil
}

// Exists checks if a live entity exists.
func (r *BaseRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Limit(1)

	return r.exists(ctx, q)
}

func (r *BaseRepo[T]) exists(ctx context.Context, q squirrel.SelectBuilder) (bool, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}

	return true, nil
}

// applySearch adds a substring match over the given columns.
func applySearch(q squirrel.SelectBuilder, search string, cols ...string) squirrel.SelectBuilder {
	if search == "" {
		return q
	}
	pattern := "%" + search + "%"
	or := make(squirrel.Or, 0, len(cols))
	for _, col := range cols {
		or = append(or, squirrel.ILike{col: pattern})
	}
	return q.Where(or)
}

// parseOrderBy validates the sort column against the select columns.
// Qualified select columns ("c.name") whitelist their bare name.
func (r *BaseRepo[T]) parseOrderBy(filter domain.ListFilter, defaultSort string) (string, error) {
	field := filter.SortBy
	if field == "" {
		field = defaultSort
	}

	allowed := make(map[string]string, len(r.selectCols))
	for _, col := range r.selectCols {
		bare := col
		if i := strings.LastIndex(col, "."); i >= 0 {
			bare = col[i+1:]
		}
		allowed[bare] = col
	}

	col, ok := allowed[field]
	if !ok {
		return "", apperror.NewValidation("invalid sort column").WithDetail("sortBy", field)
	}

	direction := "ASC"
	if filter.SortOrder == "desc" {
		direction = "DESC"
	}

	return col + " " + direction, nil
}

// conflictOnConstraint reports whether err is a unique-key conflict whose
// constraint name contains substr.
func conflictOnConstraint(err error, substr string) bool {
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConflict {
		return false
	}
	constraint, _ := appErr.Details["constraint"].(string)
	return strings.Contains(constraint, substr)
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// prefixed qualifies the given columns with a table alias.
func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = alias + "." + col
	}
	return out
}
