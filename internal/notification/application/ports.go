package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/storeflow/storefront/internal/notification/domain"
)

type NotificationRepository interface {
	// ListForUser returns the user's notifications newest-first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) (domain.Notification, error)
}
