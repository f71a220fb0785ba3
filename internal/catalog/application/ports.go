package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/storeflow/storefront/internal/catalog/domain"
)

type Filter struct {
	Category string
	Featured bool
}

type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) error
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error)
	List(ctx context.Context, f Filter) ([]domain.Product, error)
}
