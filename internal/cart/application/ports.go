package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/storeflow/storefront/internal/cart/domain"
)

type CartRepository interface {
	// Get returns the user's cart, or an empty cart when none exists yet.
	Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error)
	Save(ctx context.Context, c domain.Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}
