package console

import "context"

// Event types emitted by a Console.
const (
	EventAlert              = "alert"
	EventViewChanged        = "view_changed"
	EventProductSaved       = "product_saved"
	EventProductDeleted     = "product_deleted"
	EventCartItemAdded      = "cart_item_added"
	EventCartCleared        = "cart_cleared"
	EventOrderPlaced        = "order_placed"
	EventOrderStatusChanged = "order_status_changed"
)

// Views named by EventViewChanged.
const (
	ViewProducts = "products"
	ViewCart     = "cart"
	ViewOrders   = "orders"
)

type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
}

// Publisher receives console events. Publish must not block the action
// that produced the event for long and has no way to fail it.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	f(ctx, event)
}

// Publishers fans an event out to each publisher in order.
type Publishers []Publisher

func (p Publishers) Publish(ctx context.Context, event Event) {
	for _, publisher := range p {
		if publisher != nil {
			publisher.Publish(ctx, event)
		}
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}
