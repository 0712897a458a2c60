package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/heritage-handlooms/checkout-api/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
}

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	products map[int64]models.Product
}

func rupees(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// NewInMemoryProductRepository creates a new in-memory product repository with the storefront catalog
func NewInMemoryProductRepository() *InMemoryProductRepository {
	seed := []models.Product{
		{ID: 1, Name: "Premium Cotton Bed Sheet Set", Price: rupees(2499), OriginalPrice: rupees(3499), Category: "bedsheets", Material: "100% Cotton",
			Description: "Luxurious 100% cotton bed sheet set with traditional block prints"},
		{ID: 2, Name: "Handwoven Silk Cushion Covers", Price: rupees(899), OriginalPrice: rupees(1299), Category: "pillows", Material: "Pure Silk",
			Description: "Elegant silk cushion covers with traditional motifs"},
		{ID: 3, Name: "Traditional Block Print Curtains", Price: rupees(3299), OriginalPrice: rupees(4599), Category: "curtains", Material: "Cotton Blend",
			Description: "Beautiful block print curtains with traditional patterns"},
		{ID: 4, Name: "Handknotted Wool Rug", Price: rupees(8999), OriginalPrice: rupees(12999), Category: "rugs", Material: "Pure Wool",
			Description: "Exquisite handknotted wool rug with intricate designs"},
		{ID: 5, Name: "Embroidered Table Runner", Price: rupees(1299), OriginalPrice: rupees(1899), Category: "table", Material: "Cotton",
			Description: "Beautiful embroidered table runner with traditional motifs"},
		{ID: 6, Name: "Soft Cotton Sofa Throw", Price: rupees(1899), OriginalPrice: rupees(2699), Category: "throws", Material: "Organic Cotton",
			Description: "Cozy cotton throw perfect for sofas and chairs"},
	}

	products := make(map[int64]models.Product, len(seed))
	for _, p := range seed {
		products[p.ID] = p
	}

	return &InMemoryProductRepository{
		products: products,
	}
}

// GetAll returns all products ordered by ID
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}
