package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu   sync.Mutex
	vals map[string]int64
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vals == nil {
		m.vals = make(map[string]int64)
	}
	key, _ := args[0].(string)
	m.vals[key]++
	return &mockRow{val: m.vals[key]}
}

func TestNext(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("CMP")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.Next(ctx, cfg, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "CMP-2026-00001" {
		t.Errorf("expected CMP-2026-00001, got %s", num)
	}

	num, err = svc.Next(ctx, cfg, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "CMP-2026-00002" {
		t.Errorf("expected CMP-2026-00002, got %s", num)
	}
}

func TestNext_NoYear(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	cfg := Config{Prefix: "SITE", PadWidth: 4}

	num, err := svc.Next(context.Background(), cfg, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "SITE-0001" {
		t.Errorf("expected SITE-0001, got %s", num)
	}
}

func TestNext_SeparateKeysPerPrefix(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	period := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.Next(ctx, DefaultConfig("CMP"), period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Next(ctx, DefaultConfig("SITE"), period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != "CMP-2026-00001" || second != "SITE-2026-00001" {
		t.Errorf("prefixes must not share counters: %s / %s", first, second)
	}
}

func TestNext_Uninitialized(t *testing.T) {
	var svc *Service
	if _, err := svc.Next(context.Background(), DefaultConfig("X"), time.Now()); err == nil {
		t.Fatal("expected error for uninitialized service")
	}
}
