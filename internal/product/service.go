package product

import (
	"context"
	"time"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, input NewProduct) (Product, error)
	Update(ctx context.Context, id string, input UpdateProduct) (Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, opts ListOptions) ([]Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, input NewProduct) (Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
	)

	if input.Name == "" || input.PriceCents < 0 || input.Stock < 0 {
		return Product{}, ErrInvalidProduct
	}

	p, err := s.repo.Create(ctx, Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		Category:    input.Category,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Error("failed to create product", zap.Error(err))
		return Product{}, err
	}

	log.Info("product created", zap.String("product_id", p.ID))
	return p, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateProduct) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.PriceCents != nil {
		p.PriceCents = *input.PriceCents
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.Category != nil {
		p.Category = *input.Category
	}

	if p.Name == "" || p.PriceCents < 0 || p.Stock < 0 {
		return Product{}, ErrInvalidProduct
	}

	return s.repo.Update(ctx, p)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id string) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, opts ListOptions) ([]Product, error) {
	return s.repo.List(ctx, opts)
}
