package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outbox event payloads published to the order.events topic.

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderPaid          = "OrderPaid"
	EventOrderDelivered     = "OrderDelivered"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderPlaced struct {
	OrderID    uuid.UUID       `json:"orderId"`
	UserID     uuid.UUID       `json:"userId"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Items      []LineItem      `json:"items"`
}

type OrderPaid struct {
	OrderID       uuid.UUID `json:"orderId"`
	UserID        uuid.UUID `json:"userId"`
	TransactionID string    `json:"transactionId"`
}

type OrderDelivered struct {
	OrderID uuid.UUID `json:"orderId"`
	UserID  uuid.UUID `json:"userId"`
}

type OrderStatusChanged struct {
	OrderID uuid.UUID `json:"orderId"`
	UserID  uuid.UUID `json:"userId"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
}
