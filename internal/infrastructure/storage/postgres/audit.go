package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for stored diffs.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditRecord is the persisted shape of an audit entry.
type AuditRecord struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            string          `db:"action"`
	UserID            string          `db:"user_id"`
	ScopeType         string          `db:"scope_type"`
	ScopeID           string          `db:"scope_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	Metadata          json.RawMessage `db:"metadata"`
	CreatedAt         time.Time       `db:"created_at"`
}

// Compile-time check that AuditStore implements the domain emitter.
var _ audit.Emitter = (*AuditStore)(nil)

// AuditStore persists audit entries to sys_audit. Large change diffs are
// zstd-compressed. Writes join an active transaction when the context
// carries one.
type AuditStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditStore creates the audit store.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Log implements audit.Emitter.
func (s *AuditStore) Log(ctx context.Context, entry audit.Entry) error {
	rec := AuditRecord{
		ID:         id.New(),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     string(entry.Action),
		UserID:     entry.UserID,
		ScopeType:  entry.ScopeType,
		ScopeID:    entry.ScopeID,
		CreatedAt:  time.Now().UTC(),
	}

	if len(entry.Changes) > 0 {
		raw, err := json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		rec.Changes = raw
	}
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		rec.Metadata = raw
	}

	rec.CompressionAlgo = CompressionNone
	if len(rec.Changes) > s.compressThreshold {
		rec.ChangesCompressed = s.encoder.EncodeAll(rec.Changes, nil)
		rec.Changes = nil
		rec.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, scope_type, scope_id,
			changes, changes_compressed, compression_algo, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		rec.ID, rec.EntityType, rec.EntityID, rec.Action,
		rec.UserID, rec.ScopeType, rec.ScopeID,
		rec.Changes, rec.ChangesCompressed, rec.CompressionAlgo,
		rec.Metadata, rec.CreatedAt,
	)
	return err
}

// GetEntityHistory retrieves audit history for an entity, newest first.
func (s *AuditStore) GetEntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditRecord, error) {
	sql := `
		SELECT id, entity_type, entity_id, action, user_id, scope_type, scope_id,
			   changes, changes_compressed, compression_algo, metadata, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []AuditRecord
	for rows.Next() {
		var e AuditRecord
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.UserID, &e.ScopeType, &e.ScopeID,
			&e.Changes, &e.ChangesCompressed, &e.CompressionAlgo, &e.Metadata, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if e.CompressionAlgo == CompressionZstd && len(e.ChangesCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.ChangesCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress changes: %w", err)
			}
			e.Changes = decompressed
			e.ChangesCompressed = nil
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}
