package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storeflow/storefront/internal/cart/domain"
	"github.com/storeflow/storefront/pkg/apperr"
)

type Service struct {
	repo CartRepository
}

func NewService(repo CartRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	return s.repo.Get(ctx, userID)
}

// SetItem adds the product or overwrites its quantity, creating the cart
// lazily on first use.
func (s *Service) SetItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, apperr.Validation("quantity must be at least 1")
	}
	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	c.UserID = userID
	c.Set(productID, quantity)
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, c); err != nil {
		return domain.Cart{}, err
	}
	return c, nil
}

// UpdateQuantity changes an existing item; unlike SetItem it fails when the
// product is not in the cart.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, apperr.Validation("quantity must be at least 1")
	}
	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	if _, ok := c.Find(productID); !ok {
		return domain.Cart{}, apperr.NotFound("item not found in cart")
	}
	c.Set(productID, quantity)
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, c); err != nil {
		return domain.Cart{}, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (domain.Cart, error) {
	c, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !c.Remove(productID) {
		return domain.Cart{}, apperr.NotFound("item not found in cart")
	}
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, c); err != nil {
		return domain.Cart{}, err
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}
