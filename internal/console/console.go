package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jogardn/shop-console/internal/debounce"
	"github.com/jogardn/shop-console/internal/shopapi"
	"github.com/jogardn/shop-console/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// OrderReloadDelay is how long PlaceOrder waits before refreshing orders.
const OrderReloadDelay = 500 * time.Millisecond

// API is the part of the shop REST client a Console uses.
type API interface {
	ListProducts(ctx context.Context, filter shopapi.ProductFilter) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID string, input models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	GetCart(ctx context.Context, sessionID string) (*models.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
	AddCartItem(ctx context.Context, sessionID, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, sessionID, productID string, quantity int) error
	RemoveCartItem(ctx context.Context, sessionID, productID string) error
	PlaceOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
	ListOrders(ctx context.Context, filter shopapi.OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}

// View is what the operator currently sees. Each reload replaces the
// relevant field wholesale.
type View struct {
	SessionID     string
	Products      []models.Product
	Categories    []string
	Cart          models.Cart
	Orders        []models.Order
	ProductFilter shopapi.ProductFilter
	OrderFilter   shopapi.OrderFilter
}

// Console is the state and actions of one operator session.
type Console struct {
	api       API
	sessionID string
	alerts    *AlertBoard
	publisher Publisher
	logger    *logrus.Logger

	searchWait       time.Duration
	orderReloadDelay time.Duration

	mutex sync.RWMutex
	view  View

	productSearch *debounce.Debouncer[shopapi.ProductFilter]
	orderSearch   *debounce.Debouncer[shopapi.OrderFilter]

	// background work (debounced searches, delayed reloads) runs under ctx
	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
	timerMu sync.Mutex
	timers  []*time.Timer
	closed  bool
}

type Option func(*Console)

func WithPublisher(publisher Publisher) Option {
	return func(c *Console) {
		c.publisher = publisher
	}
}

func WithAlertBoard(board *AlertBoard) Option {
	return func(c *Console) {
		c.alerts = board
	}
}

// WithSearchWait sets the debounce applied to search inputs.
func WithSearchWait(wait time.Duration) Option {
	return func(c *Console) {
		c.searchWait = wait
	}
}

func WithOrderReloadDelay(delay time.Duration) Option {
	return func(c *Console) {
		c.orderReloadDelay = delay
	}
}

func New(api API, sessionID string, logger *logrus.Logger, opts ...Option) *Console {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Console{
		api:              api,
		sessionID:        sessionID,
		alerts:           NewAlertBoard(AlertTTL),
		publisher:        nopPublisher{},
		logger:           logger,
		searchWait:       debounce.DefaultWait,
		orderReloadDelay: OrderReloadDelay,
		view: View{
			SessionID: sessionID,
			Cart:      *models.EmptyCart(sessionID),
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.productSearch = debounce.New(c.searchWait, func(filter shopapi.ProductFilter) {
		c.background(func(ctx context.Context) { c.LoadProducts(ctx, filter) })
	})
	c.orderSearch = debounce.New(c.searchWait, func(filter shopapi.OrderFilter) {
		c.background(func(ctx context.Context) { c.LoadOrders(ctx, filter) })
	})
	return c
}

func (c *Console) SessionID() string {
	return c.sessionID
}

func (c *Console) Alerts() *AlertBoard {
	return c.alerts
}

// Init loads the first screen: products, cart and categories. Each load
// reports its own failure, so Init itself never fails.
func (c *Console) Init(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		c.LoadProducts(ctx, shopapi.ProductFilter{})
		return nil
	})
	g.Go(func() error {
		c.LoadCart(ctx)
		return nil
	})
	g.Go(func() error {
		c.LoadCategories(ctx)
		return nil
	})
	g.Wait()
}

// Snapshot returns a copy of the view that later reloads cannot change.
func (c *Console) Snapshot() View {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	v := c.view
	v.Products = append([]models.Product(nil), c.view.Products...)
	v.Categories = append([]string(nil), c.view.Categories...)
	v.Orders = append([]models.Order(nil), c.view.Orders...)
	v.Cart.Items = append([]models.CartItem(nil), c.view.Cart.Items...)
	return v
}

// Close stops pending searches and delayed reloads and waits for running
// background work.
func (c *Console) Close() {
	c.productSearch.Stop()
	c.orderSearch.Stop()

	c.timerMu.Lock()
	c.closed = true
	for _, t := range c.timers {
		if t.Stop() {
			c.pending.Done()
		}
	}
	c.timers = nil
	c.timerMu.Unlock()

	c.cancel()
	c.pending.Wait()
}

func (c *Console) background(fn func(ctx context.Context)) {
	c.timerMu.Lock()
	if c.closed {
		c.timerMu.Unlock()
		return
	}
	c.pending.Add(1)
	c.timerMu.Unlock()

	defer c.pending.Done()
	fn(c.ctx)
}

// after runs fn once delay has passed, unless the console is closed first.
func (c *Console) after(delay time.Duration, fn func(ctx context.Context)) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.closed {
		return
	}

	c.pending.Add(1)
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		defer c.pending.Done()
		c.forgetTimer(t)
		if c.ctx.Err() != nil {
			return
		}
		fn(c.ctx)
	})
	c.timers = append(c.timers, t)
}

func (c *Console) forgetTimer(t *time.Timer) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	for i, candidate := range c.timers {
		if candidate == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

func (c *Console) succeed(ctx context.Context, message string) {
	c.alert(ctx, AlertSuccess, message)
}

// fail reports err to the operator as prefix + ": " + message and returns it.
func (c *Console) fail(ctx context.Context, prefix string, err error) error {
	c.logger.WithError(err).WithField("session_id", c.sessionID).Error(prefix)
	c.alert(ctx, AlertDanger, prefix+": "+err.Error())
	return err
}

func (c *Console) alert(ctx context.Context, alertType AlertType, message string) {
	alert := c.alerts.Add(alertType, message)
	c.publish(ctx, EventAlert, alert)
}

func (c *Console) publish(ctx context.Context, eventType string, data interface{}) {
	c.publisher.Publish(ctx, Event{
		Type:      eventType,
		SessionID: c.sessionID,
		Data:      data,
	})
}

func (c *Console) viewChanged(ctx context.Context, view string) {
	c.publish(ctx, EventViewChanged, view)
}

// ErrOutOfStock is returned when adding a product the view shows as
// unavailable. No request is sent.
var ErrOutOfStock = errors.New("product is out of stock")
