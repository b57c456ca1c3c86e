package catalog_repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"backoffice/internal/domain/company"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/sequence"
)

// SequenceCodes implements company.CodeGenerator on the sys_sequences
// table. Codes look like CMP-2026-00042 and SITE-2026-00042.
type SequenceCodes struct {
	seq *sequence.Service
}

var _ company.CodeGenerator = (*SequenceCodes)(nil)

// NewSequenceCodes creates the code generator. The sequence upsert joins
// the surrounding transaction when one is active.
func NewSequenceCodes(txm *postgres.TxManager) *SequenceCodes {
	return &SequenceCodes{seq: sequence.New(querierAdapter{txm})}
}

// CompanyCode issues the next company code.
func (g *SequenceCodes) CompanyCode(ctx context.Context) (string, error) {
	return g.seq.Next(ctx, sequence.DefaultConfig("CMP"), time.Now().UTC())
}

// SiteCode issues the next site code.
func (g *SequenceCodes) SiteCode(ctx context.Context) (string, error) {
	return g.seq.Next(ctx, sequence.DefaultConfig("SITE"), time.Now().UTC())
}

// querierAdapter resolves the querier per call so sequence increments land
// inside the caller's transaction.
type querierAdapter struct {
	txm *postgres.TxManager
}

func (a querierAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}
