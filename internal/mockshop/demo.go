package mockshop

import (
	"github.com/jogardn/shop-console/pkg/models"
	"github.com/shopspring/decimal"
)

// DemoProducts is the catalogue cmd/shop-mock starts with.
func DemoProducts() []models.Product {
	return []models.Product{
		{ID: "p1", Name: "Ceramic Mug", Description: "350ml stoneware mug", Price: decimal.RequireFromString("12.50"), StockQuantity: 25, Category: "Kitchen"},
		{ID: "p2", Name: "Loose Leaf Tea", Description: "Breakfast blend, 200g", Price: decimal.RequireFromString("8.99"), StockQuantity: 40, Category: "Groceries"},
		{ID: "p3", Name: "French Press", Price: decimal.RequireFromString("34.00"), StockQuantity: 8, Category: "Kitchen"},
		{ID: "p4", Name: "Linen Apron", Description: "One size", Price: decimal.RequireFromString("22.00"), StockQuantity: 0, Category: "Textiles"},
	}
}
