package shopapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jogardn/shop-console/pkg/models"
	"github.com/sirupsen/logrus"
)

func cartPath(sessionID string) string {
	return "/api/cart/" + url.PathEscape(sessionID)
}

func cartItemPath(sessionID, productID string) string {
	return cartPath(sessionID) + "/items/" + url.PathEscape(productID)
}

func (c *Client) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	if err := c.Do(ctx, http.MethodGet, cartPath(sessionID), nil, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	if cart.SessionID == "" {
		cart.SessionID = sessionID
	}
	return &cart, nil
}

func (c *Client) ClearCart(ctx context.Context, sessionID string) error {
	c.logger.WithField("session_id", sessionID).Info("Clearing cart")
	return c.Do(ctx, http.MethodDelete, cartPath(sessionID), nil, nil)
}

func (c *Client) AddCartItem(ctx context.Context, sessionID, productID string, quantity int) error {
	c.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"product_id": productID,
		"quantity":   quantity,
	}).Info("Adding item to cart")

	body := models.AddCartItemRequest{ProductID: productID, Quantity: quantity}
	return c.Do(ctx, http.MethodPost, cartPath(sessionID)+"/items", body, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, sessionID, productID string, quantity int) error {
	c.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"product_id": productID,
		"quantity":   quantity,
	}).Info("Updating cart item quantity")

	body := models.UpdateCartItemRequest{Quantity: quantity}
	return c.Do(ctx, http.MethodPut, cartItemPath(sessionID, productID), body, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, sessionID, productID string) error {
	c.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"product_id": productID,
	}).Info("Removing item from cart")

	return c.Do(ctx, http.MethodDelete, cartItemPath(sessionID, productID), nil, nil)
}
