// Package tx defines the transaction boundary contract used by domain services.
package tx

import "context"

// Manager runs functions inside a database transaction.
//
// Multi-step mutations (company + default site, vendor delete cascade) must
// commit together or not at all; a returned error means nothing persisted.
type Manager interface {
	// RunInTransaction executes fn within a transaction. If a transaction
	// already exists in ctx it is reused.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
