// Package audit defines the audit-trail side channel.
//
// Emission is best-effort and decoupled from business outcomes: services
// call the emitter strictly after the last statement that can fail, and an
// emitter error is logged, never propagated.
package audit

import (
	"context"
	"fmt"

	"backoffice/internal/core/id"
	"backoffice/internal/core/principal"
)

// Action is the type of audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionVerify  Action = "verify"
	ActionCancel  Action = "cancel"
	ActionProcess Action = "process"
)

// Entry is a single audit record.
type Entry struct {
	Action     Action
	EntityType string
	EntityID   id.ID

	UserID    string
	ScopeType string
	ScopeID   string

	// Metadata carries free-form context (e.g. autoCreated: true).
	Metadata map[string]any

	// Changes carries a before/after diff for updates.
	Changes map[string]any
}

// Emitter records audit entries. Implementations must be safe to call
// outside transactions; failures must not affect the business operation.
type Emitter interface {
	Log(ctx context.Context, entry Entry) error
}

// Enrich fills actor fields from the context principal when absent.
func Enrich(ctx context.Context, entry *Entry) {
	p := principal.FromContext(ctx)
	if p == nil {
		return
	}
	if entry.UserID == "" {
		entry.UserID = p.UserID
	}
	if entry.ScopeType == "" {
		entry.ScopeType = string(p.Scope)
		entry.ScopeID = p.ScopeID.String()
	}
}

// Diff calculates the before/after difference between two entity states,
// keeping only fields that actually changed.
func Diff(before, after map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range after {
		oldVal, exists := before[key]
		if !exists {
			changes[key] = map[string]any{"before": nil, "after": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"before": oldVal, "after": newVal}
		}
	}

	for key, oldVal := range before {
		if _, exists := after[key]; !exists {
			changes[key] = map[string]any{"before": oldVal, "after": nil}
		}
	}

	return changes
}

func equal(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// Nop is an emitter that discards entries. Used in tests.
type Nop struct{}

func (Nop) Log(ctx context.Context, entry Entry) error { return nil }
