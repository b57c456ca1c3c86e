// Package sequence provides database-backed code generation for entities
// whose codes must be unique without a derived-name scheme (companies,
// sites). Numbers come from an INSERT ... ON CONFLICT ... RETURNING upsert,
// so concurrent requests can never observe the same value.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is the minimal database surface the service needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds code format configuration.
type Config struct {
	// Prefix added to all codes (e.g., "CMP", "SITE")
	Prefix string

	// IncludeYear adds the year to the code
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
	}
}

// Service generates sequential codes.
type Service struct {
	querier Querier
}

// New creates a sequence service.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// Next generates the next code for the prefix.
// Pattern: PREFIX-YEAR-XXXXX (e.g., CMP-2026-00001).
func (s *Service) Next(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("sequence service is not initialized")
	}

	key := s.buildKey(cfg, period)

	var num int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next sequence value: %w", err)
	}

	return s.format(cfg, period, num), nil
}

func (s *Service) buildKey(cfg Config, period time.Time) string {
	if cfg.IncludeYear {
		return fmt.Sprintf("%s_%d", cfg.Prefix, period.Year())
	}
	return cfg.Prefix
}

func (s *Service) format(cfg Config, period time.Time, num int64) string {
	pad := cfg.PadWidth
	if pad <= 0 {
		pad = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, period.Year(), pad, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, pad, num)
}
