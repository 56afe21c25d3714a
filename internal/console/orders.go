package console

import (
	"context"
	"strings"

	"github.com/jogardn/shop-console/internal/shopapi"
	"github.com/jogardn/shop-console/pkg/models"
)

type CheckoutForm struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	Notes           string
}

func (f CheckoutForm) request(sessionID string) models.CreateOrderRequest {
	return models.CreateOrderRequest{
		SessionID:       sessionID,
		CustomerName:    f.CustomerName,
		CustomerEmail:   f.CustomerEmail,
		CustomerPhone:   models.Optional(f.CustomerPhone),
		ShippingAddress: f.ShippingAddress,
		Notes:           models.Optional(f.Notes),
	}
}

// PlaceOrder checks out the session's cart. The order list is refreshed
// shortly afterwards rather than immediately.
func (c *Console) PlaceOrder(ctx context.Context, form CheckoutForm) (*models.Order, error) {
	order, err := c.api.PlaceOrder(ctx, form.request(c.sessionID))
	if err != nil {
		return nil, c.fail(ctx, "Failed to place order", err)
	}

	c.LoadCart(ctx)
	c.succeed(ctx, "Order placed successfully! Order number: "+order.OrderNumber)
	c.publish(ctx, EventOrderPlaced, order)

	c.after(c.orderReloadDelay, func(ctx context.Context) {
		c.LoadOrders(ctx, c.orderFilter())
	})
	return order, nil
}

func (c *Console) LoadOrders(ctx context.Context, filter shopapi.OrderFilter) error {
	c.mutex.Lock()
	c.view.OrderFilter = filter
	c.mutex.Unlock()

	orders, err := c.api.ListOrders(ctx, filter)
	if err != nil {
		return c.fail(ctx, "Failed to load orders", err)
	}

	c.mutex.Lock()
	c.view.Orders = orders
	c.mutex.Unlock()

	c.viewChanged(ctx, ViewOrders)
	return nil
}

// QueueOrderSearch records the filter and reloads orders once typing pauses.
func (c *Console) QueueOrderSearch(filter shopapi.OrderFilter) {
	c.mutex.Lock()
	c.view.OrderFilter = filter
	c.mutex.Unlock()

	c.orderSearch.Trigger(filter)
}

// UpdateOrderStatus moves an order from current to next. An empty or
// unchanged next is ignored; an unknown status is rejected before any
// request is made.
func (c *Console) UpdateOrderStatus(ctx context.Context, orderID, current, next string) error {
	next = strings.TrimSpace(next)
	if next == "" || next == current {
		return nil
	}

	status, err := models.ParseOrderStatus(next)
	if err != nil {
		c.alert(ctx, AlertDanger, "Invalid status. Valid statuses: "+models.StatusList())
		return err
	}

	if err := c.api.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return c.fail(ctx, "Failed to update order status", err)
	}

	c.LoadOrders(ctx, c.orderFilter())
	c.succeed(ctx, "Order status updated successfully!")
	c.publish(ctx, EventOrderStatusChanged, map[string]string{
		"order_id": orderID,
		"status":   string(status),
	})
	return nil
}

func (c *Console) orderFilter() shopapi.OrderFilter {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.view.OrderFilter
}
