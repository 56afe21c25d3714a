package mockshop

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jogardn/shop-console/internal/middleware"
	"github.com/jogardn/shop-console/pkg/models"
	"github.com/sirupsen/logrus"
)

// Server exposes a Store over the shop REST contract.
type Server struct {
	store  *Store
	logger *logrus.Logger
}

func NewServer(store *Store, logger *logrus.Logger) *Server {
	return &Server{store: store, logger: logger}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.healthCheck).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", s.listProducts).Methods("GET")
	api.HandleFunc("/products", s.createProduct).Methods("POST")
	api.HandleFunc("/products/categories", s.listCategories).Methods("GET")
	api.HandleFunc("/products/{id}", s.updateProduct).Methods("PUT")
	api.HandleFunc("/products/{id}", s.deleteProduct).Methods("DELETE")

	api.HandleFunc("/cart/{session}", s.getCart).Methods("GET")
	api.HandleFunc("/cart/{session}", s.clearCart).Methods("DELETE")
	api.HandleFunc("/cart/{session}/items", s.addCartItem).Methods("POST")
	api.HandleFunc("/cart/{session}/items/{product}", s.updateCartItem).Methods("PUT")
	api.HandleFunc("/cart/{session}/items/{product}", s.removeCartItem).Methods("DELETE")

	api.HandleFunc("/orders", s.placeOrder).Methods("POST")
	api.HandleFunc("/orders", s.listOrders).Methods("GET")
	api.HandleFunc("/orders/{id}/status", s.updateOrderStatus).Methods("PUT")

	router.Use(middleware.Logging(s.logger))
	return router
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "shop-mock",
	})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := s.store.ListProducts(q.Get("search"), q.Get("category"))
	s.respondWithJSON(w, http.StatusOK, models.ProductList{Products: products})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, models.CategoryList{Categories: s.store.Categories()})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var input models.ProductInput
	if !s.decode(w, r, &input) {
		return
	}

	product, err := s.store.CreateProduct(input)
	if err != nil {
		s.respondWithStoreError(w, err)
		return
	}

	s.logger.WithField("product_id", product.ID).Info("Product created")
	s.respondWithJSON(w, http.StatusCreated, product)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var input models.ProductInput
	if !s.decode(w, r, &input) {
		return
	}

	product, err := s.store.UpdateProduct(mux.Vars(r)["id"], input)
	if err != nil {
		s.respondWithStoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, product)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProduct(mux.Vars(r)["id"]); err != nil {
		s.respondWithStoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.store.Cart(mux.Vars(r)["session"]))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.store.ClearCart(mux.Vars(r)["session"])
	s.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req models.AddCartItemRequest
	if !s.decode(w, r, &req) {
		return
	}

	session := mux.Vars(r)["session"]
	if err := s.store.AddCartItem(session, req.ProductID, req.Quantity); err != nil {
		s.respondWithStoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusCreated, s.store.Cart(session))
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCartItemRequest
	if !s.decode(w, r, &req) {
		return
	}

	vars := mux.Vars(r)
	if err := s.store.UpdateCartItem(vars["session"], vars["product"], req.Quantity); err != nil {
		s.respondWithStoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, s.store.Cart(vars["session"]))
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.store.RemoveCartItem(vars["session"], vars["product"]); err != nil {
		s.respondWithStoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, s.store.Cart(vars["session"]))
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if !s.decode(w, r, &req) {
		return
	}

	order, err := s.store.PlaceOrder(req)
	if err != nil {
		s.respondWithStoreError(w, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"session_id":   order.SessionID,
	}).Info("Order created")
	s.respondWithJSON(w, http.StatusCreated, order)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders := s.store.ListOrders(q.Get("status"), q.Get("customer_email"))
	s.respondWithJSON(w, http.StatusOK, models.OrderList{Orders: orders})
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateOrderStatusRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.store.UpdateOrderStatus(mux.Vars(r)["id"], req.Status); err != nil {
		s.respondWithStoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Order status updated"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to decode request body")
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (s *Server) respondWithStoreError(w http.ResponseWriter, err error) {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		s.respondWithError(w, storeErr.Status, storeErr.Message)
		return
	}
	s.respondWithError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, models.ErrorResponse{Error: message})
}
