package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeflow/storefront/pkg/apperr"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// rank orders the linear fulfillment chain. Forward moves are legal,
// backward moves are not, and the terminal states admit nothing.
var rank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

func (s Status) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := rank[s]
	return ok
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from s to next.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	from, okFrom := rank[s]
	to, okTo := rank[next]
	return okFrom && okTo && to > from
}

type PaymentMethod string

const (
	MethodPayPal     PaymentMethod = "PayPal"
	MethodCreditCard PaymentMethod = "Credit Card"
	MethodStripe     PaymentMethod = "Stripe"
	MethodCOD        PaymentMethod = "COD"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPayPal, MethodCreditCard, MethodStripe, MethodCOD:
		return true
	}
	return false
}

type Address struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a Address) Validate() error {
	if a.Address == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
		return apperr.Validation("shipping address is incomplete")
	}
	return nil
}

// LineItem freezes name and unit price at placement time; later product
// edits never alter an existing order.
type LineItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// PaymentResult stores the gateway's capture payload as-is. The workflow
// does not verify it against the gateway.
type PaymentResult struct {
	TransactionID string `json:"id"`
	Status        string `json:"status"`
	UpdateTime    string `json:"update_time"`
	PayerEmail    string `json:"email_address"`
}

type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Items           []LineItem
	ShippingAddress Address
	PaymentMethod   PaymentMethod
	Breakdown       Breakdown
	Status          Status
	PaymentResult   *PaymentResult
	PaidAt          *time.Time
	DeliveredAt     *time.Time
	// Version guards concurrent mutations of the same order.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOrder(userID uuid.UUID, items []LineItem, address Address, method PaymentMethod, breakdown Breakdown) Order {
	now := time.Now().UTC()
	return Order{
		ID:              uuid.New(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   method,
		Breakdown:       breakdown,
		Status:          StatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (o *Order) IsPaid() bool      { return o.PaidAt != nil }
func (o *Order) IsDelivered() bool { return o.DeliveredAt != nil }

// RecordPayment stamps the order paid. It is a no-op on an already-paid
// order.
func (o *Order) RecordPayment(result PaymentResult, at time.Time) bool {
	if o.IsPaid() {
		return false
	}
	o.PaidAt = &at
	o.PaymentResult = &result
	o.UpdatedAt = at
	return true
}

// RecordDelivery stamps the order delivered and advances the status when the
// transition is legal. No-op on an already-delivered order.
func (o *Order) RecordDelivery(at time.Time) bool {
	if o.IsDelivered() {
		return false
	}
	o.DeliveredAt = &at
	if o.Status.CanTransition(StatusDelivered) {
		o.Status = StatusDelivered
	}
	o.UpdatedAt = at
	return true
}

// Transition moves the order to next, rejecting illegal edges. Reaching
// Delivered also stamps the delivery timestamp.
func (o *Order) Transition(next Status, at time.Time) error {
	if !next.Valid() {
		return apperr.Validation("unknown status %q", next)
	}
	if !o.Status.CanTransition(next) {
		return apperr.InvalidTransition(string(o.Status), string(next))
	}
	o.Status = next
	if next == StatusDelivered && o.DeliveredAt == nil {
		o.DeliveredAt = &at
	}
	o.UpdatedAt = at
	return nil
}
