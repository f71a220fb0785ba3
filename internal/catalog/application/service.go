package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeflow/storefront/internal/catalog/domain"
	"github.com/storeflow/storefront/pkg/apperr"
	"github.com/storeflow/storefront/pkg/identity"
)

type Service struct {
	repo ProductRepository
}

func NewService(repo ProductRepository) *Service {
	return &Service{repo: repo}
}

type ProductInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	CountInStock int
	Images       []string
	Category     string
	IsFeatured   bool
}

func (s *Service) Create(ctx context.Context, caller identity.Identity, in ProductInput) (domain.Product, error) {
	if !caller.IsAdmin {
		return domain.Product{}, apperr.Forbidden("admin access required")
	}
	p := domain.NewProduct(in.Name, in.Description, in.Price, in.CountInStock, in.Images, in.Category, in.IsFeatured)
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, caller identity.Identity, id uuid.UUID, in ProductInput) (domain.Product, error) {
	if !caller.IsAdmin {
		return domain.Product{}, apperr.Forbidden("admin access required")
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.Name = in.Name
	p.Slug = domain.Slugify(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.CountInStock = in.CountInStock
	p.Images = in.Images
	p.Category = in.Category
	p.IsFeatured = in.IsFeatured
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, caller identity.Identity, id uuid.UUID) error {
	if !caller.IsAdmin {
		return apperr.Forbidden("admin access required")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	return s.repo.List(ctx, f)
}
