package console

import (
	"context"

	"github.com/jogardn/shop-console/pkg/models"
)

// LoadCart refreshes the cart. On failure the view falls back to an empty
// cart and nothing is shown to the operator.
func (c *Console) LoadCart(ctx context.Context) error {
	cart, err := c.api.GetCart(ctx, c.sessionID)
	if err != nil {
		c.logger.WithError(err).WithField("session_id", c.sessionID).Error("Failed to load cart")
		cart = models.EmptyCart(c.sessionID)
	}

	c.mutex.Lock()
	c.view.Cart = *cart
	c.mutex.Unlock()

	c.viewChanged(ctx, ViewCart)
	return err
}

// AddToCart adds quantity (at least 1) of a product. A product the view
// shows with zero stock is refused without a request.
func (c *Console) AddToCart(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	if product, ok := c.Product(productID); ok && !product.InStock() {
		return c.fail(ctx, "Failed to add item to cart", ErrOutOfStock)
	}

	if err := c.api.AddCartItem(ctx, c.sessionID, productID, quantity); err != nil {
		return c.fail(ctx, "Failed to add item to cart", err)
	}

	c.LoadCart(ctx)
	c.succeed(ctx, "Item added to cart!")
	c.publish(ctx, EventCartItemAdded, models.AddCartItemRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	return nil
}

// UpdateCartItemQuantity sets a line's quantity. Zero or less removes it.
func (c *Console) UpdateCartItemQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveFromCart(ctx, productID)
	}

	if err := c.api.UpdateCartItem(ctx, c.sessionID, productID, quantity); err != nil {
		c.fail(ctx, "Failed to update cart", err)
		c.LoadCart(ctx)
		return err
	}

	c.LoadCart(ctx)
	return nil
}

func (c *Console) RemoveFromCart(ctx context.Context, productID string) error {
	if err := c.api.RemoveCartItem(ctx, c.sessionID, productID); err != nil {
		return c.fail(ctx, "Failed to remove item", err)
	}

	c.LoadCart(ctx)
	c.succeed(ctx, "Item removed from cart!")
	return nil
}

func (c *Console) ClearCart(ctx context.Context) error {
	if err := c.api.ClearCart(ctx, c.sessionID); err != nil {
		return c.fail(ctx, "Failed to clear cart", err)
	}

	c.LoadCart(ctx)
	c.succeed(ctx, "Cart cleared!")
	c.publish(ctx, EventCartCleared, nil)
	return nil
}
