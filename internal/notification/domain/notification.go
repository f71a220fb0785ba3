package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one row of the append-only per-user ledger describing
// order lifecycle events.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	OrderID   uuid.UUID
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

func New(userID, orderID uuid.UUID, message string) Notification {
	return Notification{
		ID:        uuid.New(),
		UserID:    userID,
		OrderID:   orderID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}
