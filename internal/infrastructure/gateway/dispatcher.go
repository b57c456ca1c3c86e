package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/refund"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

// RefundLoader fetches refunds for the relay without a principal.
type RefundLoader interface {
	GetForSettlement(ctx context.Context, refundID id.ID) (*refund.Refund, error)
}

// EventDispatcher routes outbox messages to their destinations: settlement
// requests go to the processor, audit entries are already persisted and
// only need acknowledgement.
type EventDispatcher struct {
	refunds    RefundLoader
	settlement *SettlementClient
}

// NewEventDispatcher creates the dispatcher the worker relay runs.
func NewEventDispatcher(refunds RefundLoader, settlement *SettlementClient) *EventDispatcher {
	return &EventDispatcher{refunds: refunds, settlement: settlement}
}

var _ postgres.OutboxHandler = (*EventDispatcher)(nil)

// Handle processes one outbox message. Unknown event types are
// acknowledged so a stale message can never wedge the relay.
func (d *EventDispatcher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	switch msg.EventType {
	case postgres.EventSettlementRequested:
		return d.handleSettlement(ctx, msg)
	case postgres.EventAuditEntry:
		return nil
	default:
		logger.Warn(ctx, "unknown outbox event type",
			"event_type", msg.EventType,
			"message_id", msg.ID.String(),
		)
		return nil
	}
}

func (d *EventDispatcher) handleSettlement(ctx context.Context, msg *postgres.OutboxMessage) error {
	var payload SettlementRequestedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode settlement payload: %w", err)
	}

	r, err := d.refunds.GetForSettlement(ctx, payload.RefundID)
	if err != nil {
		return fmt.Errorf("load refund %s: %w", payload.RefundID, err)
	}

	// The refund may have been completed or cancelled since the request
	// was queued; only PROCESSING refunds still need a submission.
	if r.Status != refund.StatusProcessing {
		logger.Info(ctx, "skipping settlement for refund no longer processing",
			"refund_id", r.ID.String(),
			"status", string(r.Status),
		)
		return nil
	}

	return d.settlement.Submit(ctx, r)
}
