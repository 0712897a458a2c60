package service

import (
	"context"
	"errors"
	"testing"

	"github.com/heritage-handlooms/checkout-api/internal/repository"
)

func TestProductService_ListProducts(t *testing.T) {
	svc := NewProductService(repository.NewInMemoryProductRepository())

	tests := []struct {
		name     string
		category string
		wantIDs  []int64
	}{
		{name: "whole catalog", category: "", wantIDs: []int64{1, 2, 3, 4, 5, 6}},
		{name: "one category", category: "rugs", wantIDs: []int64{4}},
		{name: "case-insensitive", category: " Curtains ", wantIDs: []int64{3}},
		{name: "unknown category", category: "lamps", wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := svc.ListProducts(context.Background(), tt.category)
			if err != nil {
				t.Fatalf("ListProducts() unexpected error = %v", err)
			}
			if len(products) != len(tt.wantIDs) {
				t.Fatalf("got %d products, want %d", len(products), len(tt.wantIDs))
			}
			for i, p := range products {
				if p.ID != tt.wantIDs[i] {
					t.Errorf("product %d id = %d, want %d", i, p.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestProductService_GetProduct(t *testing.T) {
	svc := NewProductService(repository.NewInMemoryProductRepository())

	product, err := svc.GetProduct(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetProduct() unexpected error = %v", err)
	}
	if product.Name != "Embroidered Table Runner" {
		t.Errorf("name = %q, want Embroidered Table Runner", product.Name)
	}
	assertAmount(t, "price", "1299", product.Price)

	if _, err := svc.GetProduct(context.Background(), 99); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("GetProduct(99) error = %v, want ErrProductNotFound", err)
	}
}
