package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jogardn/shop-console/internal/console"
	"github.com/jogardn/shop-console/internal/shopapi"
	"github.com/jogardn/shop-console/pkg/models"
	"github.com/shopspring/decimal"
)

func (s *Server) productsPage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Has("search") || q.Has("category") {
		c.LoadProducts(r.Context(), shopapi.ProductFilter{
			Search:   q.Get("search"),
			Category: q.Get("category"),
		})
	}

	data := s.pageData(r, c, "products")
	if id := q.Get("edit"); id != "" {
		if product, found := c.Product(id); found {
			data.Edit = &product
		}
	}
	s.render(w, r, "products.html", data)
}

func (s *Server) cartPage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	s.render(w, r, "cart.html", s.pageData(r, c, "cart"))
}

// ordersPage reloads orders each time the tab is opened.
func (s *Server) ordersPage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}

	filter := c.Snapshot().OrderFilter
	q := r.URL.Query()
	if q.Has("status") || q.Has("customer_email") {
		filter = shopapi.OrderFilter{
			Status:        q.Get("status"),
			CustomerEmail: q.Get("customer_email"),
		}
	}
	c.LoadOrders(r.Context(), filter)

	s.render(w, r, "orders.html", s.pageData(r, c, "orders"))
}

func (s *Server) saveProduct(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	input, err := productInput(r)
	if err != nil {
		c.Alerts().Add(console.AlertDanger, "Failed to save product: "+err.Error())
		redirect(w, r, "/")
		return
	}

	c.SaveProduct(r.Context(), id, input)
	redirect(w, r, "/")
}

func productInput(r *http.Request) (models.ProductInput, error) {
	if err := r.ParseForm(); err != nil {
		return models.ProductInput{}, errors.New("invalid form data")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(r.PostForm.Get("price")))
	if err != nil {
		return models.ProductInput{}, errors.New("price must be a number")
	}
	stock, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("stock_quantity")))
	if err != nil {
		return models.ProductInput{}, errors.New("stock quantity must be a whole number")
	}

	return models.NewProductInput(
		r.PostForm.Get("name"),
		r.PostForm.Get("description"),
		price,
		stock,
		r.PostForm.Get("category"),
		r.PostForm.Get("image_url"),
	), nil
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	c.DeleteProduct(r.Context(), mux.Vars(r)["id"])
	redirect(w, r, "/")
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}

	quantity, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		quantity = 1
	}
	c.AddToCart(r.Context(), r.FormValue("product_id"), quantity)
	redirect(w, r, "/")
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		c.Alerts().Add(console.AlertDanger, "Failed to update cart: quantity must be a whole number")
		redirect(w, r, "/cart")
		return
	}
	c.UpdateCartItemQuantity(r.Context(), mux.Vars(r)["id"], quantity)
	redirect(w, r, "/cart")
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	c.RemoveFromCart(r.Context(), mux.Vars(r)["id"])
	redirect(w, r, "/cart")
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	c.ClearCart(r.Context())
	redirect(w, r, "/cart")
}

// checkout places the order and switches to the orders tab on success.
func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}

	_, err := c.PlaceOrder(r.Context(), console.CheckoutForm{
		CustomerName:    r.FormValue("customer_name"),
		CustomerEmail:   r.FormValue("customer_email"),
		CustomerPhone:   r.FormValue("customer_phone"),
		ShippingAddress: r.FormValue("shipping_address"),
		Notes:           r.FormValue("notes"),
	})
	if err != nil {
		redirect(w, r, "/cart")
		return
	}
	redirect(w, r, "/orders")
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	c.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], r.FormValue("current"), r.FormValue("status"))
	redirect(w, r, "/orders")
}

func (s *Server) dismissAlert(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	c.Alerts().Dismiss(mux.Vars(r)["id"])

	if r.Header.Get("X-Requested-With") != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirect(w, r, backTo(r))
}

// liveProducts queues a debounced product search as the operator types.
func (s *Server) liveProducts(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	c.QueueProductSearch(shopapi.ProductFilter{Search: q.Get("search"), Category: q.Get("category")})
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) liveOrders(w http.ResponseWriter, r *http.Request) {
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	c.QueueOrderSearch(shopapi.OrderFilter{Status: q.Get("status"), CustomerEmail: q.Get("customer_email")})
	w.WriteHeader(http.StatusAccepted)
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// backTo returns the local page named by the form's "back" field, or "/".
func backTo(r *http.Request) string {
	back := r.FormValue("back")
	switch back {
	case "/", "/cart", "/orders":
		return back
	}
	return "/"
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	tmpl, ok := s.templates[name]
	if !ok {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	block := "layout"
	if r.URL.Query().Get("fragment") != "" {
		block = "view"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, block, data); err != nil {
		s.logger.WithError(err).WithField("template", name).Error("Failed to render template")
		http.Error(w, fmt.Sprintf("Failed to render %s", name), http.StatusInternalServerError)
	}
}
