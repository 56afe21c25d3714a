package mockshop

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jogardn/shop-console/pkg/models"
	"github.com/shopspring/decimal"
)

// Error is a failure with the HTTP status the fake backend answers with.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorf(status int, format string, args ...interface{}) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

type cartLine struct {
	productID string
	quantity  int
}

// Store is an in-memory shop: products, carts keyed by session and orders.
type Store struct {
	mutex       sync.RWMutex
	products    map[string]*models.Product
	order       []string
	carts       map[string][]cartLine
	orders      []*models.Order
	nextProduct int
	nextOrder   int
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]*models.Product),
		carts:    make(map[string][]cartLine),
		now:      time.Now,
	}
}

// Seed adds products as-is. Products without an ID get a generated one.
func (s *Store) Seed(products ...models.Product) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, p := range products {
		p := p
		if p.ID == "" {
			p.ID = s.newProductID()
		}
		if _, exists := s.products[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}
		s.products[p.ID] = &p
	}
}

func (s *Store) newProductID() string {
	s.nextProduct++
	return fmt.Sprintf("prod-%d", s.nextProduct)
}

func validateProduct(input models.ProductInput) *Error {
	if strings.TrimSpace(input.Name) == "" {
		return errorf(http.StatusBadRequest, "Product name is required")
	}
	if input.Price.IsNegative() {
		return errorf(http.StatusBadRequest, "Price must not be negative")
	}
	if input.StockQuantity < 0 {
		return errorf(http.StatusBadRequest, "Stock quantity must not be negative")
	}
	return nil
}

func (s *Store) ListProducts(search, category string) []models.Product {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	search = strings.ToLower(search)
	products := make([]models.Product, 0, len(s.order))
	for _, id := range s.order {
		p := s.products[id]
		if category != "" && p.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		products = append(products, *p)
	}
	return products
}

func (s *Store) Categories() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, p := range s.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

func (s *Store) Product(id string) (models.Product, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, false
	}
	return *p, true
}

func (s *Store) CreateProduct(input models.ProductInput) (models.Product, error) {
	if err := validateProduct(input); err != nil {
		return models.Product{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	p := &models.Product{
		ID:            s.newProductID(),
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		Category:      models.Deref(input.Category),
		ImageURL:      models.Deref(input.ImageURL),
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	return *p, nil
}

func (s *Store) UpdateProduct(id string, input models.ProductInput) (models.Product, error) {
	if err := validateProduct(input); err != nil {
		return models.Product{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, ok := s.products[id]
	if !ok {
		return models.Product{}, errorf(http.StatusNotFound, "Product not found")
	}

	now := s.now()
	p.Name = input.Name
	p.Description = input.Description
	p.Price = input.Price
	p.StockQuantity = input.StockQuantity
	p.Category = models.Deref(input.Category)
	p.ImageURL = models.Deref(input.ImageURL)
	p.UpdatedAt = &now
	return *p, nil
}

func (s *Store) DeleteProduct(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.products[id]; !ok {
		return errorf(http.StatusNotFound, "Product not found")
	}
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Cart builds the cart of a session from current product data.
func (s *Store) Cart(sessionID string) *models.Cart {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cartLocked(sessionID)
}

func (s *Store) cartLocked(sessionID string) *models.Cart {
	cart := models.EmptyCart(sessionID)
	for _, line := range s.carts[sessionID] {
		p, ok := s.products[line.productID]
		if !ok {
			continue
		}
		cart.Items = append(cart.Items, models.CartItem{Product: *p, Quantity: line.quantity})
	}
	cart.Recalculate()
	return cart
}

func (s *Store) ClearCart(sessionID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.carts, sessionID)
}

// AddCartItem adds quantity to the line of productID, creating it if needed.
func (s *Store) AddCartItem(sessionID, productID string, quantity int) error {
	if quantity < 1 {
		return errorf(http.StatusBadRequest, "Quantity must be at least 1")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return errorf(http.StatusNotFound, "Product not found")
	}

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].productID == productID {
			if lines[i].quantity+quantity > p.StockQuantity {
				return errorf(http.StatusBadRequest, "Insufficient stock for %s", p.Name)
			}
			lines[i].quantity += quantity
			return nil
		}
	}

	if quantity > p.StockQuantity {
		return errorf(http.StatusBadRequest, "Insufficient stock for %s", p.Name)
	}
	s.carts[sessionID] = append(lines, cartLine{productID: productID, quantity: quantity})
	return nil
}

func (s *Store) UpdateCartItem(sessionID, productID string, quantity int) error {
	if quantity < 1 {
		return errorf(http.StatusBadRequest, "Quantity must be at least 1")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].productID != productID {
			continue
		}
		if p, ok := s.products[productID]; ok && quantity > p.StockQuantity {
			return errorf(http.StatusBadRequest, "Insufficient stock for %s", p.Name)
		}
		lines[i].quantity = quantity
		return nil
	}
	return errorf(http.StatusNotFound, "Item not found in cart")
}

func (s *Store) RemoveCartItem(sessionID, productID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].productID == productID {
			s.carts[sessionID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return errorf(http.StatusNotFound, "Item not found in cart")
}

// PlaceOrder snapshots the session's cart into a new order, takes the
// quantities out of stock and empties the cart.
func (s *Store) PlaceOrder(req models.CreateOrderRequest) (models.Order, error) {
	if strings.TrimSpace(req.CustomerName) == "" ||
		strings.TrimSpace(req.CustomerEmail) == "" ||
		strings.TrimSpace(req.ShippingAddress) == "" {
		return models.Order{}, errorf(http.StatusBadRequest, "Customer name, email and shipping address are required")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	cart := s.cartLocked(req.SessionID)
	if cart.IsEmpty() {
		return models.Order{}, errorf(http.StatusBadRequest, "Cart is empty")
	}
	for _, item := range cart.Items {
		if item.Quantity > item.Product.StockQuantity {
			return models.Order{}, errorf(http.StatusBadRequest, "Insufficient stock for %s", item.Product.Name)
		}
	}

	now := s.now()
	s.nextOrder++
	order := &models.Order{
		ID:              fmt.Sprintf("order-%d", s.nextOrder),
		OrderNumber:     fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), s.nextOrder),
		SessionID:       req.SessionID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   models.Deref(req.CustomerPhone),
		ShippingAddress: req.ShippingAddress,
		Status:          models.OrderStatusNew,
		Items:           make([]models.OrderItem, 0, len(cart.Items)),
		TotalAmount:     decimal.Zero,
		Notes:           models.Deref(req.Notes),
		CreatedAt:       now,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.Product.ID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Product.Price,
			Subtotal:    item.Subtotal,
		})
		order.TotalAmount = order.TotalAmount.Add(item.Subtotal)
		s.products[item.Product.ID].StockQuantity -= item.Quantity
	}

	s.orders = append(s.orders, order)
	delete(s.carts, req.SessionID)
	return *order, nil
}

// ListOrders returns matching orders, newest first.
func (s *Store) ListOrders(status, email string) []models.Order {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	orders := []models.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		o := s.orders[i]
		if status != "" && string(o.Status) != status {
			continue
		}
		if email != "" && !strings.Contains(strings.ToLower(o.CustomerEmail), strings.ToLower(email)) {
			continue
		}
		orders = append(orders, *o)
	}
	return orders
}

func (s *Store) UpdateOrderStatus(id string, status models.OrderStatus) error {
	if !status.Valid() {
		return errorf(http.StatusBadRequest, "Invalid status. Valid statuses: %s", models.StatusList())
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, o := range s.orders {
		if o.ID == id {
			o.Status = status
			return nil
		}
	}
	return errorf(http.StatusNotFound, "Order not found")
}
