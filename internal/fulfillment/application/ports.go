package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/storeflow/storefront/internal/catalog/domain"
	"github.com/storeflow/storefront/internal/fulfillment/domain"
)

// OrderRepository persists the fulfillment workflow. Place and Update are
// atomic units: the order mutation, the notification row, and the outbox
// event commit together or not at all.
type OrderRepository interface {
	// Place validates and decrements stock for every line item, persists
	// the order, and appends the notification and outbox event, all in one
	// transaction. Missing products, insufficient stock, and unit prices
	// that drifted from the frozen line items abort the whole unit.
	Place(ctx context.Context, o domain.Order, note string, eventType string, payload []byte) error

	// Update persists the order's mutable fields, guarded by the expected
	// version; a stale version fails Conflict with no side effects.
	Update(ctx context.Context, o domain.Order, expectedVersion int64, note string, eventType string, payload []byte) error

	Get(ctx context.Context, id uuid.UUID) (domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}

// CatalogReader resolves authoritative product data for checkout.
type CatalogReader interface {
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalogdomain.Product, error)
}

// Charge is the gateway's handle for a created but uncaptured payment.
type Charge struct {
	ID          string `json:"chargeId"`
	ApprovalURL string `json:"approvalUrl"`
}

// PaymentGateway is an opaque remote payment processor. Failures carry a
// transient-vs-permanent distinction via apperr.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, amount decimal.Decimal, currency string) (Charge, error)
	CaptureCharge(ctx context.Context, chargeID string) (domain.PaymentResult, error)
}

// IdempotencyStore leases checkout idempotency keys.
type IdempotencyStore interface {
	Key(userID uuid.UUID, key string) string
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
