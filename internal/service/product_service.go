package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/heritage-handlooms/checkout-api/internal/models"
	"github.com/heritage-handlooms/checkout-api/internal/repository"
)

var ErrProductNotFound = errors.New("product not found")

// ProductService serves the handloom catalog to the storefront
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService creates a catalog service over repo
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns the catalog in id order. A non-empty category keeps only
// the products of that category, compared case-insensitively.
func (s *ProductService) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return products, nil
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetProduct returns one catalog entry
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}
