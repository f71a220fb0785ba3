package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storeflow/storefront/internal/fulfillment/domain"
	"github.com/storeflow/storefront/pkg/apperr"
	"github.com/storeflow/storefront/pkg/identity"
)

type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	catalog  CatalogReader
	gateway  PaymentGateway
	idem     IdempotencyStore
	currency string
}

func NewService(log *slog.Logger, repo OrderRepository, catalog CatalogReader, gateway PaymentGateway, idem IdempotencyStore, currency string) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		catalog:  catalog,
		gateway:  gateway,
		idem:     idem,
		currency: currency,
	}
}

type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type PlaceOrderInput struct {
	Items           []ItemInput
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethod
	Breakdown       domain.Breakdown
	// IdempotencyKey, when set, makes repeated submission of the same
	// checkout attempt fail Conflict instead of creating a second order.
	IdempotencyKey string
}

// PlaceOrder runs the checkout workflow: validate input, freeze line items
// from authoritative product data, recompute and verify the price breakdown,
// then commit order + stock decrement + notification + outbox event as one
// atomic unit.
func (s *Service) PlaceOrder(ctx context.Context, caller identity.Identity, in PlaceOrderInput) (domain.Order, error) {
	if len(in.Items) == 0 {
		return domain.Order{}, apperr.Validation("no order items")
	}
	seen := make(map[uuid.UUID]struct{}, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return domain.Order{}, apperr.Validation("quantity must be at least 1")
		}
		// One line item per product; a repeated id would double-reserve
		// stock behind a single price check.
		if _, dup := seen[it.ProductID]; dup {
			return domain.Order{}, apperr.Validation("product %s appears more than once in order items", it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}
	if !in.PaymentMethod.Valid() {
		return domain.Order{}, apperr.Validation("unknown payment method %q", in.PaymentMethod)
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return domain.Order{}, err
	}
	if err := in.Breakdown.Validate(); err != nil {
		return domain.Order{}, err
	}

	if in.IdempotencyKey == "" {
		return s.place(ctx, caller, in)
	}

	key := s.idem.Key(caller.UserID, in.IdempotencyKey)
	ok, err := s.idem.Acquire(ctx, key)
	if err != nil {
		return domain.Order{}, apperr.Unavailable(err, "idempotency store unavailable")
	}
	if !ok {
		return domain.Order{}, apperr.Conflict("duplicate checkout attempt")
	}

	o, err := s.place(ctx, caller, in)
	if err != nil {
		// Release the lease so the client can retry the same key.
		_ = s.idem.Release(context.WithoutCancel(ctx), key)
		return domain.Order{}, err
	}
	return o, nil
}

func (s *Service) place(ctx context.Context, caller identity.Identity, in PlaceOrderInput) (domain.Order, error) {
	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return domain.Order{}, apperr.NotFound("product %s not found", it.ProductID)
		}
		items = append(items, domain.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  it.Quantity,
		})
	}

	// The caller's totals must match the server-side recomputation from
	// authoritative prices.
	breakdown := domain.ComputeBreakdown(items)
	if !breakdown.Equal(in.Breakdown) {
		return domain.Order{}, apperr.Validation("price breakdown does not match current product prices")
	}

	o := domain.NewOrder(caller.UserID, items, in.ShippingAddress, in.PaymentMethod, breakdown)

	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.Breakdown.TotalPrice,
		Items:      o.Items,
	})
	if err != nil {
		return domain.Order{}, err
	}

	note := fmt.Sprintf("Your order %s has been placed.", o.ID)
	if err := s.repo.Place(ctx, o, note, domain.EventOrderPlaced, payload); err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order placed", "order_id", o.ID, "user_id", o.UserID, "total", o.Breakdown.TotalPrice)
	return o, nil
}

// MarkPaid stamps the order paid with the gateway's result. Calling it on an
// already-paid order is a no-op: the stored timestamp is kept and no second
// notification is emitted.
func (s *Service) MarkPaid(ctx context.Context, caller identity.Identity, orderID uuid.UUID, result domain.PaymentResult) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.UserID != caller.UserID && !caller.IsAdmin {
		return domain.Order{}, apperr.Forbidden("access denied")
	}
	if !o.RecordPayment(result, time.Now().UTC()) {
		return o, nil
	}

	payload, err := json.Marshal(domain.OrderPaid{
		OrderID:       o.ID,
		UserID:        o.UserID,
		TransactionID: result.TransactionID,
	})
	if err != nil {
		return domain.Order{}, err
	}
	note := fmt.Sprintf("Payment confirmed for order %s.", o.ID)
	if err := s.update(ctx, &o, note, domain.EventOrderPaid, payload); err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order paid", "order_id", o.ID, "transaction_id", result.TransactionID)
	return o, nil
}

// MarkDelivered is admin-only and idempotent.
func (s *Service) MarkDelivered(ctx context.Context, caller identity.Identity, orderID uuid.UUID) (domain.Order, error) {
	if !caller.IsAdmin {
		return domain.Order{}, apperr.Forbidden("admin access required")
	}
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !o.RecordDelivery(time.Now().UTC()) {
		return o, nil
	}

	payload, err := json.Marshal(domain.OrderDelivered{OrderID: o.ID, UserID: o.UserID})
	if err != nil {
		return domain.Order{}, err
	}
	note := fmt.Sprintf("Order %s has been delivered.", o.ID)
	if err := s.update(ctx, &o, note, domain.EventOrderDelivered, payload); err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order delivered", "order_id", o.ID)
	return o, nil
}

// SetStatus is admin-only. Illegal edges in the transition table fail
// InvalidTransition.
func (s *Service) SetStatus(ctx context.Context, caller identity.Identity, orderID uuid.UUID, next domain.Status) (domain.Order, error) {
	if !caller.IsAdmin {
		return domain.Order{}, apperr.Forbidden("admin access required")
	}
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	from := o.Status
	if err := o.Transition(next, time.Now().UTC()); err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(domain.OrderStatusChanged{
		OrderID: o.ID,
		UserID:  o.UserID,
		From:    from,
		To:      next,
	})
	if err != nil {
		return domain.Order{}, err
	}
	note := fmt.Sprintf("Order %s is now %s.", o.ID, next)
	if err := s.update(ctx, &o, note, domain.EventOrderStatusChanged, payload); err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order status changed", "order_id", o.ID, "from", from, "to", next)
	return o, nil
}

func (s *Service) update(ctx context.Context, o *domain.Order, note, eventType string, payload []byte) error {
	expected := o.Version
	o.Version++
	return s.repo.Update(ctx, *o, expected, note, eventType, payload)
}

func (s *Service) GetOrder(ctx context.Context, caller identity.Identity, orderID uuid.UUID) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.UserID != caller.UserID && !caller.IsAdmin {
		return domain.Order{}, apperr.Forbidden("access denied")
	}
	return o, nil
}

func (s *Service) ListMine(ctx context.Context, caller identity.Identity) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, caller.UserID)
}

func (s *Service) ListAll(ctx context.Context, caller identity.Identity) ([]domain.Order, error) {
	if !caller.IsAdmin {
		return nil, apperr.Forbidden("admin access required")
	}
	return s.repo.ListAll(ctx)
}

// InitiateGatewayPayment creates a remote charge for the order total. Pure
// pass-through: no local state changes until the capture result comes back
// through MarkPaid.
func (s *Service) InitiateGatewayPayment(ctx context.Context, caller identity.Identity, orderID uuid.UUID) (Charge, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Charge{}, err
	}
	if o.UserID != caller.UserID && !caller.IsAdmin {
		return Charge{}, apperr.Forbidden("access denied")
	}
	if o.IsPaid() {
		return Charge{}, apperr.Conflict("order is already paid")
	}
	return s.gateway.CreateCharge(ctx, o.Breakdown.TotalPrice, s.currency)
}

// CaptureGatewayPayment delegates capture to the gateway. The caller is
// expected to follow up with MarkPaid using the returned fields.
func (s *Service) CaptureGatewayPayment(ctx context.Context, chargeID string) (domain.PaymentResult, error) {
	if chargeID == "" {
		return domain.PaymentResult{}, apperr.Validation("charge id is required")
	}
	return s.gateway.CaptureCharge(ctx, chargeID)
}
