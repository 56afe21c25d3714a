package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrCartInconsistent = errors.New("cart totals are inconsistent")

type CartItem struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// LineTotal is unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AtStockLimit reports whether the quantity can no longer be raised.
func (i CartItem) AtStockLimit() bool {
	return i.Quantity >= i.Product.StockQuantity
}

type Cart struct {
	SessionID   string          `json:"session_id"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemsCount  int             `json:"items_count"`
}

// EmptyCart is what the console shows when a cart cannot be loaded.
func EmptyCart(sessionID string) *Cart {
	return &Cart{
		SessionID:   sessionID,
		Items:       []CartItem{},
		TotalAmount: decimal.Zero,
	}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Item(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.Product.ID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// Recalculate derives every subtotal, the total and the item count from the
// line items.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	count := 0
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].LineTotal()
		total = total.Add(c.Items[i].Subtotal)
		count += c.Items[i].Quantity
	}
	c.TotalAmount = total
	c.ItemsCount = count
}

// Verify checks that each subtotal is price times quantity and that the
// total is the sum of subtotals.
func (c *Cart) Verify() error {
	sum := decimal.Zero
	for _, item := range c.Items {
		if !item.Subtotal.Equal(item.LineTotal()) {
			return fmt.Errorf("%w: item %s subtotal %s, expected %s",
				ErrCartInconsistent, item.Product.ID, item.Subtotal, item.LineTotal())
		}
		sum = sum.Add(item.Subtotal)
	}
	if !c.TotalAmount.Equal(sum) {
		return fmt.Errorf("%w: total %s, expected %s", ErrCartInconsistent, c.TotalAmount, sum)
	}
	return nil
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
