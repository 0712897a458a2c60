package models

import "github.com/shopspring/decimal"

// Product represents a handloom item in the catalog
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	Category      string          `json:"category"`
	Material      string          `json:"material,omitempty"`
	Description   string          `json:"description,omitempty"`
}
