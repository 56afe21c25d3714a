package shopapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jogardn/shop-console/internal/circuitbreaker"
	"github.com/jogardn/shop-console/internal/mockshop"
	"github.com/jogardn/shop-console/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	logger.SetOutput(io.Discard)
	return logger
}

func newShop(t *testing.T) (*Client, *mockshop.Store) {
	t.Helper()
	store := mockshop.NewStore()
	store.Seed(mockshop.DemoProducts()...)
	server := httptest.NewServer(mockshop.NewServer(store, testLogger()).Router())
	t.Cleanup(server.Close)
	return NewClient(server.URL, testLogger()), store
}

func TestAddItemThenReloadCart(t *testing.T) {
	client, _ := newShop(t)
	ctx := context.Background()

	if err := client.AddCartItem(ctx, "session_x", "p1", 2); err != nil {
		t.Fatalf("Failed to add item: %v", err)
	}

	cart, err := client.GetCart(ctx, "session_x")
	if err != nil {
		t.Fatalf("Failed to load cart: %v", err)
	}

	matches := 0
	for _, item := range cart.Items {
		if item.Product.ID == "p1" {
			matches++
			if item.Quantity != 2 {
				t.Errorf("Expected quantity 2, got %d", item.Quantity)
			}
		}
	}
	if matches != 1 {
		t.Errorf("Expected exactly one p1 entry, got %d", matches)
	}
	if err := cart.Verify(); err != nil {
		t.Errorf("Expected consistent cart totals, got %v", err)
	}
}

func TestCartLifecycle(t *testing.T) {
	client, _ := newShop(t)
	ctx := context.Background()

	client.AddCartItem(ctx, "s", "p1", 1)
	client.AddCartItem(ctx, "s", "p2", 3)

	if err := client.UpdateCartItem(ctx, "s", "p2", 5); err != nil {
		t.Fatalf("Failed to update item: %v", err)
	}
	if err := client.RemoveCartItem(ctx, "s", "p1"); err != nil {
		t.Fatalf("Failed to remove item: %v", err)
	}

	cart, _ := client.GetCart(ctx, "s")
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 5 {
		t.Fatalf("Expected only p2 x5, got %+v", cart.Items)
	}
	if !cart.TotalAmount.Equal(decimal.RequireFromString("44.95")) {
		t.Errorf("Expected total 44.95, got %s", cart.TotalAmount)
	}

	if err := client.ClearCart(ctx, "s"); err != nil {
		t.Fatalf("Failed to clear cart: %v", err)
	}
	cart, _ = client.GetCart(ctx, "s")
	if !cart.IsEmpty() {
		t.Error("Expected empty cart after clear")
	}
}

func TestProductsRoundTrip(t *testing.T) {
	client, _ := newShop(t)
	ctx := context.Background()

	created, err := client.CreateProduct(ctx, models.NewProductInput("Kettle", "Stovetop", decimal.RequireFromString("39.90"), 5, "Kitchen", ""))
	if err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	if created.ID == "" || created.Name != "Kettle" {
		t.Fatalf("Unexpected product %+v", created)
	}

	updated, err := client.UpdateProduct(ctx, created.ID, models.NewProductInput("Kettle", "Stovetop", decimal.RequireFromString("35"), 4, "Kitchen", ""))
	if err != nil {
		t.Fatalf("Failed to update product: %v", err)
	}
	if !updated.Price.Equal(decimal.NewFromInt(35)) {
		t.Errorf("Expected price 35, got %s", updated.Price)
	}

	products, err := client.ListProducts(ctx, ProductFilter{Search: "kettle", Category: "Kitchen"})
	if err != nil {
		t.Fatalf("Failed to list products: %v", err)
	}
	if len(products) != 1 || products[0].ID != created.ID {
		t.Errorf("Expected the kettle only, got %+v", products)
	}

	categories, err := client.ListCategories(ctx)
	if err != nil {
		t.Fatalf("Failed to list categories: %v", err)
	}
	if len(categories) != 3 {
		t.Errorf("Expected 3 categories, got %v", categories)
	}

	if err := client.DeleteProduct(ctx, created.ID); err != nil {
		t.Fatalf("Failed to delete product: %v", err)
	}
}

func TestOrdersRoundTrip(t *testing.T) {
	client, _ := newShop(t)
	ctx := context.Background()

	client.AddCartItem(ctx, "s", "p3", 1)
	order, err := client.PlaceOrder(ctx, models.CreateOrderRequest{
		SessionID:       "s",
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		ShippingAddress: "12 Analytical Way",
	})
	if err != nil {
		t.Fatalf("Failed to place order: %v", err)
	}
	if order.OrderNumber == "" {
		t.Error("Expected an order number")
	}

	if err := client.UpdateOrderStatus(ctx, order.ID, models.OrderStatusProcessing); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	orders, err := client.ListOrders(ctx, OrderFilter{Status: "processing", CustomerEmail: "ada@"})
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != models.OrderStatusProcessing {
		t.Errorf("Expected one processing order, got %+v", orders)
	}
}

func TestServerErrorMessageIsSurfaced(t *testing.T) {
	client, _ := newShop(t)

	err := client.AddCartItem(context.Background(), "s", "p4", 1)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected RequestError, got %v", err)
	}
	if reqErr.Kind != KindStatus || reqErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Unexpected error kind/status: %s/%d", reqErr.Kind, reqErr.StatusCode)
	}
	if reqErr.Error() != "Insufficient stock for Linen Apron" {
		t.Errorf("Expected server message, got %q", reqErr.Error())
	}
	if !errors.Is(err, ErrRequestFailed) {
		t.Error("Expected error to match ErrRequestFailed")
	}
}

// rawStatusServer answers every request with statusLine verbatim, so tests
// control the reason phrase.
func rawStatusServer(t *testing.T, statusLine, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("Failed to hijack: %v", err)
			return
		}
		defer conn.Close()
		fmt.Fprintf(buf, "HTTP/1.1 %s\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s", statusLine, len(body), body)
		buf.Flush()
	}))
	t.Cleanup(server.Close)
	return server
}

func TestErrorMessageFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		statusLine string
		body       string
		status     int
		expected   string
	}{
		{"json error field", "409 Conflict", `{"error":"Duplicate name"}`, 409, "Duplicate name"},
		{"json without error field", "409 Conflict", `{"message":"nope"}`, 409, "HTTP error! status: 409"},
		{"plain text body", "503 Service Unavailable", "upstream down", 503, "Service Unavailable"},
		{"server reason phrase", "503 Backend Napping", "upstream down", 503, "Backend Napping"},
		{"nonstandard code with reason", "599 Network Connect Timeout", "<html>", 599, "Network Connect Timeout"},
		{"no reason phrase", "599", "<html>", 599, "HTTP error! status: 599"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := rawStatusServer(t, tt.statusLine, tt.body)

			client := NewClient(server.URL, testLogger())
			_, err := client.ListProducts(context.Background(), ProductFilter{})

			if err == nil || err.Error() != tt.expected {
				t.Errorf("Expected %q, got %v", tt.expected, err)
			}
			if StatusCode(err) != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, StatusCode(err))
			}
		})
	}
}

func TestUnbuildableRequestIsRequestError(t *testing.T) {
	client := NewClient("http://localhost:1", testLogger())
	ctx := context.Background()

	err := client.Do(ctx, http.MethodPost, "/api/products", map[string]interface{}{"bad": make(chan int)}, nil)
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("Expected marshal failure to match ErrRequestFailed, got %v", err)
	}

	err = client.Do(ctx, "BAD METHOD", "/api/products", nil, nil)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Kind != KindInvalidRequest {
		t.Fatalf("Expected invalid request error, got %v", err)
	}
	if IsOutage(err) {
		t.Error("Expected a request that was never sent not to count as an outage")
	}
}

func TestDefaultAndOverriddenHeaders(t *testing.T) {
	var gotContentType, gotTrace string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotTrace = r.Header.Get("X-Trace")
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", testLogger())
	ctx := context.Background()

	if err := client.Do(ctx, http.MethodGet, "/api/products", nil, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected default JSON content type, got %q", gotContentType)
	}

	err := client.Do(ctx, http.MethodPost, "/upload", nil, nil,
		WithHeader("Content-Type", "text/plain"), WithHeader("X-Trace", "abc"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotContentType != "text/plain" || gotTrace != "abc" {
		t.Errorf("Expected caller headers to win, got %q / %q", gotContentType, gotTrace)
	}
}

func TestQueryParametersOnlyWhenSet(t *testing.T) {
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		io.WriteString(w, `{"orders":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, testLogger())
	ctx := context.Background()

	client.ListOrders(ctx, OrderFilter{})
	if rawQuery != "" {
		t.Errorf("Expected no query, got %q", rawQuery)
	}

	client.ListOrders(ctx, OrderFilter{Status: "new", CustomerEmail: "a+b@example.com"})
	if rawQuery != "customer_email=a%2Bb%40example.com&status=new" {
		t.Errorf("Unexpected query %q", rawQuery)
	}
}

func TestConnectivityFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, testLogger())
	_, err := client.GetCart(context.Background(), "s")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Kind != KindConnectivity {
		t.Fatalf("Expected connectivity error, got %v", err)
	}
	if !IsOutage(err) {
		t.Error("Expected connectivity failure to count as an outage")
	}
}

func TestCallerContextBoundsRequest(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListCategories(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestCircuitBreakerFailsFast(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:        "shop-api",
		MaxFailures: 2,
		Timeout:     time.Minute,
		IsFailure:   IsOutage,
	}, testLogger())
	client := NewClient(server.URL, testLogger(), WithCircuitBreaker(breaker))
	ctx := context.Background()

	client.ListCategories(ctx)
	client.ListCategories(ctx)
	_, err := client.ListCategories(ctx)

	if calls != 2 {
		t.Errorf("Expected open breaker to stop the third call, backend saw %d", calls)
	}
	if !errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) || !errors.Is(err, ErrRequestFailed) {
		t.Errorf("Expected open breaker request error, got %v", err)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	if IsOutage(&RequestError{Kind: KindStatus, StatusCode: http.StatusNotFound}) {
		t.Error("Expected 404 not to count as an outage")
	}
	if !IsOutage(&RequestError{Kind: KindStatus, StatusCode: http.StatusInternalServerError}) {
		t.Error("Expected 500 to count as an outage")
	}
}

func TestAbandonedCallsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "slow" {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, "[]")
	}))
	defer server.Close()

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:        "shop-api",
		MaxFailures: 2,
		Timeout:     time.Minute,
		IsFailure:   IsOutage,
		IsIgnored:   IsCanceled,
	}, testLogger())
	client := NewClient(server.URL, testLogger(), WithCircuitBreaker(breaker))

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := client.ListProducts(ctx, ProductFilter{Search: "slow"})
		cancel()

		var reqErr *RequestError
		if !errors.As(err, &reqErr) || reqErr.Kind != KindCanceled {
			t.Fatalf("Expected cancelled request error, got %v", err)
		}
		if IsOutage(err) || !IsCanceled(err) || !errors.Is(err, ErrRequestFailed) {
			t.Errorf("Unexpected classification for %v", err)
		}
	}

	if breaker.State() != circuitbreaker.StateClosed {
		t.Fatalf("Expected breaker to stay closed, got %s", breaker.State())
	}
	if _, err := client.ListProducts(context.Background(), ProductFilter{}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
