package refund

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"backoffice/internal/core/id"
	"backoffice/internal/domain"
)

// ListQuery bounds a refund listing. OrganizationID is always set; ClientID
// is set for CLIENT-scoped principals so the listing never leaves their own
// client's companies even without an explicit company filter.
type ListQuery struct {
	OrganizationID id.ID
	ClientID       *id.ID
	CompanyID      *id.ID
	Status         Status

	// Cursor selects keyset pagination; empty falls back to offset.
	Cursor string
	Filter domain.ListFilter
}

// Repository is the persistence port for refunds.
type Repository interface {
	GetByID(ctx context.Context, orgID, refundID id.ID) (*Refund, error)

	// GetForSettlement fetches without an organization bound; only the
	// settlement callback path may use it.
	GetForSettlement(ctx context.Context, refundID id.ID) (*Refund, error)
	List(ctx context.Context, q ListQuery) (domain.CursorResult[*Refund], error)
	Create(ctx context.Context, r *Refund) error
	Update(ctx context.Context, r *Refund) error
	Stats(ctx context.Context, q ListQuery) (*Stats, error)
}

// SettingsRepository persists per-company refund settings.
type SettingsRepository interface {
	GetByCompany(ctx context.Context, companyID id.ID) (*Settings, error)
	Create(ctx context.Context, s *Settings) error
	Update(ctx context.Context, s *Settings) error
}

// Order is the slice of an order the refund workflow needs.
type Order struct {
	ID         id.ID
	CompanyID  id.ID
	CustomerID id.ID
	Total      decimal.Decimal
	Currency   string
	OrderDate  time.Time
}

// OrderDirectory looks up orders for validation at refund creation.
type OrderDirectory interface {
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
}

// Settler hands an approved refund to the settlement channel. Submit
// reports completed=true when settlement finished synchronously (stub
// mode); the asynchronous implementation publishes a settlement request
// and reports false, leaving completion to the callback path.
type Settler interface {
	Submit(ctx context.Context, r *Refund) (completed bool, err error)
}
