package gateway

import (
	"context"
	"time"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/refund"
	"backoffice/internal/infrastructure/storage/postgres"
)

// OutboxSettler implements refund.Settler by publishing a settlement
// request through the transactional outbox. The worker relays it to the
// processor; completion arrives later via the callback endpoint, so Submit
// always reports completed=false.
type OutboxSettler struct {
	publisher *postgres.OutboxPublisher
}

// NewOutboxSettler creates the outbox-backed settler.
func NewOutboxSettler(publisher *postgres.OutboxPublisher) *OutboxSettler {
	return &OutboxSettler{publisher: publisher}
}

var _ refund.Settler = (*OutboxSettler)(nil)

// SettlementRequestedPayload is the outbox payload for a settlement request.
type SettlementRequestedPayload struct {
	RefundID    id.ID     `json:"refundId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Submit queues the settlement request with the surrounding transaction.
func (s *OutboxSettler) Submit(ctx context.Context, r *refund.Refund) (bool, error) {
	err := s.publisher.Publish(ctx, postgres.DomainEvent{
		AggregateType: "refund",
		AggregateID:   r.ID,
		EventType:     postgres.EventSettlementRequested,
		Payload:       SettlementRequestedPayload{RefundID: r.ID, RequestedAt: time.Now().UTC()},
	})
	if err != nil {
		return false, err
	}
	return false, nil
}

// SyncSettler implements refund.Settler by calling the processor inline.
// Meant for environments without the worker; the refund completes in the
// same request.
type SyncSettler struct {
	client *SettlementClient
}

// NewSyncSettler creates the inline settler.
func NewSyncSettler(client *SettlementClient) *SyncSettler {
	return &SyncSettler{client: client}
}

var _ refund.Settler = (*SyncSettler)(nil)

// Submit sends the refund and reports completion when the processor
// accepted it.
func (s *SyncSettler) Submit(ctx context.Context, r *refund.Refund) (bool, error) {
	if err := s.client.Submit(ctx, r); err != nil {
		return false, err
	}
	return true, nil
}
