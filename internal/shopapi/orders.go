package shopapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jogardn/shop-console/pkg/models"
	"github.com/sirupsen/logrus"
)

type OrderFilter struct {
	Status        string
	CustomerEmail string
}

func (f OrderFilter) query() string {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.CustomerEmail != "" {
		params.Set("customer_email", f.CustomerEmail)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

func (c *Client) PlaceOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	c.logger.WithFields(logrus.Fields{
		"session_id":     req.SessionID,
		"customer_email": req.CustomerEmail,
	}).Info("Placing order")

	var order models.Order
	if err := c.Do(ctx, http.MethodPost, "/api/orders", req, &order); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount.String(),
	}).Info("Order placed")

	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	var resp models.OrderList
	if err := c.Do(ctx, http.MethodGet, "/api/orders"+filter.query(), nil, &resp); err != nil {
		return nil, err
	}

	c.logger.WithField("count", len(resp.Orders)).Debug("Retrieved orders from shop API")

	if resp.Orders == nil {
		resp.Orders = []models.Order{}
	}
	return resp.Orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	c.logger.WithFields(logrus.Fields{
		"order_id": orderID,
		"status":   status,
	}).Info("Updating order status")

	body := models.UpdateOrderStatusRequest{Status: status}
	return c.Do(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(orderID)+"/status", body, nil)
}
