package catalog_repo

import (
	"errors"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

func newTestRepo() *BaseRepo[any] {
	return NewBaseRepo[any](nil, "test_table", []string{"id", "name", "code"}, func() any { return nil })
}

func TestBaseRepo_BaseSelect_ExcludesDeleted(t *testing.T) {
	repo := newTestRepo()

	sql, _, err := repo.baseSelect().ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantSQL := "SELECT id, name, code FROM test_table WHERE deleted_at IS NULL"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
}

func TestBaseRepo_ParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		name    string
		filter  domain.ListFilter
		want    string
		wantErr bool
	}{
		{
			name:   "default sort",
			filter: domain.ListFilter{},
			want:   "name ASC",
		},
		{
			name:   "explicit column",
			filter: domain.ListFilter{SortBy: "code"},
			want:   "code ASC",
		},
		{
			name:   "descending",
			filter: domain.ListFilter{SortBy: "code", SortOrder: "desc"},
			want:   "code DESC",
		},
		{
			name:    "unknown column rejected",
			filter:  domain.ListFilter{SortBy: "password"},
			wantErr: true,
		},
		{
			name:    "injection rejected",
			filter:  domain.ListFilter{SortBy: "name; DROP TABLE test_table"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.filter, "name")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeValidation {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrderBy failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("order by mismatch\nwant: %s\ngot:  %s", tt.want, got)
			}
		})
	}
}

func TestBaseRepo_ParseOrderBy_QualifiedColumns(t *testing.T) {
	repo := NewBaseRepo[any](nil, "test_table", []string{"t.id", "t.name"}, func() any { return nil })

	got, err := repo.parseOrderBy(domain.ListFilter{SortBy: "name"}, "name")
	if err != nil {
		t.Fatalf("parseOrderBy failed: %v", err)
	}
	if got != "t.name ASC" {
		t.Errorf("order by mismatch\nwant: t.name ASC\ngot:  %s", got)
	}
}

func TestApplySearch(t *testing.T) {
	repo := newTestRepo()

	q := applySearch(repo.baseSelect(), "acme", "name", "code")
	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantSQL := "SELECT id, name, code FROM test_table WHERE deleted_at IS NULL AND (name ILIKE $1 OR code ILIKE $2)"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
	if len(args) != 2 || args[0] != "%acme%" {
		t.Errorf("args mismatch: %v", args)
	}
}

func TestApplySearch_EmptyLeavesQueryUntouched(t *testing.T) {
	repo := newTestRepo()

	sql, _, err := applySearch(repo.baseSelect(), "", "name").ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	if sql != "SELECT id, name, code FROM test_table WHERE deleted_at IS NULL" {
		t.Errorf("unexpected SQL: %s", sql)
	}
}

func TestBaseRepo_SoftDelete_SQL(t *testing.T) {
	repo := newTestRepo()
	entityID := id.New()

	q := repo.Builder().
		Update(repo.tableName).
		Set("deleted_at", squirrel.Expr("now()")).
		Set("deleted_by", "user-1").
		Where(squirrel.Eq{"id": entityID})

	sql, _, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	wantSQL := "UPDATE test_table SET deleted_at = now(), deleted_by = $1 WHERE id = $2"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
}

func TestUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "vendors_code_key"}

	constraint, ok := uniqueViolation(pgErr)
	if !ok {
		t.Fatal("expected unique violation to be detected")
	}
	if constraint != "vendors_code_key" {
		t.Errorf("constraint mismatch: %s", constraint)
	}

	if _, ok := uniqueViolation(errors.New("plain error")); ok {
		t.Error("plain error must not register as unique violation")
	}
	if _, ok := uniqueViolation(&pgconn.PgError{Code: pgForeignKeyViolation}); ok {
		t.Error("fk violation must not register as unique violation")
	}
}

func TestConflictOnConstraint(t *testing.T) {
	err := apperror.NewConflict("duplicate key").WithDetail("constraint", "vendors_code_key")

	if !conflictOnConstraint(err, "code") {
		t.Error("expected match on code constraint")
	}
	if conflictOnConstraint(err, "slug") {
		t.Error("unexpected match on slug")
	}
	if conflictOnConstraint(errors.New("other"), "code") {
		t.Error("plain error must not match")
	}
	if conflictOnConstraint(apperror.NewNotFound("vendors", "x"), "code") {
		t.Error("not-found must not match")
	}
}

func TestPrefixed(t *testing.T) {
	got := prefixed("c", []string{"id", "name"})
	if got[0] != "c.id" || got[1] != "c.name" {
		t.Errorf("prefixed mismatch: %v", got)
	}
}
