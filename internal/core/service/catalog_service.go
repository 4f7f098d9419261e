package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type CatalogService struct {
	products port.ProductRepository
	log      *logrus.Logger
}

func NewCatalogService(products port.ProductRepository, log *logrus.Logger) *CatalogService {
	return &CatalogService{products: products, log: log}
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       int64           `json:"price"`
	Category    domain.Category `json:"category"`
	Images      []string        `json:"images"`
	Stock       int             `json:"stock"`
}

// ProductPatch carries the fields of a partial update; nil means unchanged.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *int64           `json:"price"`
	Category    *domain.Category `json:"category"`
	Images      *[]string        `json:"images"`
	Stock       *int             `json:"stock"`
	Active      *bool            `json:"isActive"`
}

func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, domain.Validationf("unknown category %q", filter.Category)
	}
	filter.Search = strings.TrimSpace(filter.Search)

	products, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct satisfies port.ProductReader.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return *p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	now := time.Now().UTC()
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    in.Category,
		Images:      in.Images,
		Stock:       in.Stock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}

	if err := s.products.CreateProduct(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.log.WithFields(logrus.Fields{"product_id": p.ID, "stock": p.Stock}).Info("product created")
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (domain.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	p.UpdatedAt = time.Now().UTC()

	ok, err := s.products.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}

	s.log.WithField("product_id", p.ID).Info("product updated")
	return p, nil
}

// DeleteProduct is a soft delete: the product stops being listed or sold but
// existing cart references keep resolving.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	ok, err := s.products.DeactivateProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	if !ok {
		return domain.ErrProductNotFound
	}

	s.log.WithField("product_id", id).Info("product deactivated")
	return nil
}

func validateProduct(p domain.Product) error {
	if n := utf8.RuneCountInString(p.Name); n < 3 || n > 200 {
		return domain.Validationf("name must be between 3 and 200 characters")
	}
	if utf8.RuneCountInString(p.Description) < 10 {
		return domain.Validationf("description must be at least 10 characters")
	}
	if p.Price < 0 {
		return domain.Validationf("price cannot be negative")
	}
	if !p.Category.Valid() {
		return domain.Validationf("unknown category %q", p.Category)
	}
	if p.Stock < 0 {
		return domain.Validationf("stock cannot be negative")
	}
	return nil
}
