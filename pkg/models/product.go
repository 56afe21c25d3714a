package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// The backend reads and writes prices as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Category      string          `json:"category,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedAt     *time.Time      `json:"created_at,omitempty"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// ProductInput is the body of a product create or update. Empty category and
// image URL are sent as null.
type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Category      *string         `json:"category"`
	ImageURL      *string         `json:"image_url"`
}

func NewProductInput(name, description string, price decimal.Decimal, stock int, category, imageURL string) ProductInput {
	return ProductInput{
		Name:          name,
		Description:   description,
		Price:         price,
		StockQuantity: stock,
		Category:      Optional(category),
		ImageURL:      Optional(imageURL),
	}
}

// Optional returns nil for an empty string so it encodes as JSON null.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref is the inverse of Optional.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type ProductList struct {
	Products []Product `json:"products"`
}

type CategoryList struct {
	Categories []string `json:"categories"`
}
