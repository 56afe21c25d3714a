package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/jogardn/shop-console/internal/circuitbreaker"
	"github.com/jogardn/shop-console/internal/console"
	"github.com/jogardn/shop-console/internal/middleware"
	"github.com/jogardn/shop-console/internal/session"
	"github.com/jogardn/shop-console/internal/shopapi"
	"github.com/jogardn/shop-console/internal/websocket"
	"github.com/sirupsen/logrus"
)

type Options struct {
	// SessionKey signs the session cookie and the CSRF token.
	SessionKey    []byte
	SecureCookies bool
	CSRF          bool

	// Consoles idle longer than IdleTimeout are closed; at most MaxConsoles
	// are held. Zero values use the defaults.
	IdleTimeout time.Duration
	MaxConsoles int

	// Optional collaborators.
	Hub            *websocket.Hub
	Activity       console.Publisher
	Breakers       *circuitbreaker.Manager
	ConsoleOptions []console.Option
}

// Server renders the console for browsers. Each browser gets its own
// session token and Console.
type Server struct {
	client    *shopapi.Client
	consoles  *Registry
	cookies   sessions.Store
	hub       *websocket.Hub
	breakers  *circuitbreaker.Manager
	templates map[string]*template.Template
	opts      Options
	logger    *logrus.Logger
}

func NewServer(client *shopapi.Client, opts Options, logger *logrus.Logger) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		client:    client,
		cookies:   NewCookieStore(opts.SessionKey, opts.SecureCookies),
		hub:       opts.Hub,
		breakers:  opts.Breakers,
		templates: templates,
		opts:      opts,
		logger:    logger,
	}

	publishers := console.Publishers{}
	if s.hub != nil {
		publishers = append(publishers, hubPublisher(s.hub))
	}
	if opts.Activity != nil {
		publishers = append(publishers, opts.Activity)
	}

	s.consoles = NewRegistry(func(sessionID string) *console.Console {
		consoleOpts := append([]console.Option{console.WithPublisher(publishers)}, opts.ConsoleOptions...)
		return console.New(client, sessionID, logger, consoleOpts...)
	}, opts.IdleTimeout, opts.MaxConsoles, logger)
	return s, nil
}

func hubPublisher(hub *websocket.Hub) console.Publisher {
	return console.PublisherFunc(func(ctx context.Context, event console.Event) {
		hub.Send(event.SessionID, event.Type, event.Data, "console")
	})
}

func (s *Server) Consoles() *Registry {
	return s.consoles
}

func (s *Server) Close() {
	s.consoles.Close()
}

// Handler returns the routed console with its middleware chain.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.healthCheck).Methods("GET")
	router.HandleFunc("/api/health/all", s.allServicesHealthCheck).Methods("GET")
	router.PathPrefix("/static/").Handler(http.FileServer(http.FS(staticFS)))

	router.HandleFunc("/", s.productsPage).Methods("GET")
	router.HandleFunc("/products", s.saveProduct).Methods("POST")
	router.HandleFunc("/products/{id}", s.saveProduct).Methods("POST")
	router.HandleFunc("/products/{id}/delete", s.deleteProduct).Methods("POST")

	router.HandleFunc("/cart", s.cartPage).Methods("GET")
	router.HandleFunc("/cart/items", s.addToCart).Methods("POST")
	router.HandleFunc("/cart/items/{id}/quantity", s.updateCartItem).Methods("POST")
	router.HandleFunc("/cart/items/{id}/delete", s.removeFromCart).Methods("POST")
	router.HandleFunc("/cart/clear", s.clearCart).Methods("POST")
	router.HandleFunc("/checkout", s.checkout).Methods("POST")

	router.HandleFunc("/orders", s.ordersPage).Methods("GET")
	router.HandleFunc("/orders/{id}/status", s.updateOrderStatus).Methods("POST")

	router.HandleFunc("/alerts/{id}/dismiss", s.dismissAlert).Methods("POST")
	router.HandleFunc("/live/products", s.liveProducts).Methods("GET")
	router.HandleFunc("/live/orders", s.liveOrders).Methods("GET")
	router.HandleFunc("/ws", s.serveWebSocket)

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Logging(s.logger))

	if !s.opts.CSRF {
		return router
	}

	protect := csrf.Protect(
		s.opts.SessionKey,
		csrf.Secure(s.opts.SecureCookies),
		csrf.Path("/"),
	)(router)

	// Plain HTTP deployments (local development) must say so, or the
	// Referer check assumes TLS.
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil && !s.opts.SecureCookies {
			r = csrf.PlaintextHTTPRequest(r)
		}
		protect.ServeHTTP(w, r)
	})
}

// consoleFor resolves the browser's session and its Console.
func (s *Server) consoleFor(w http.ResponseWriter, r *http.Request) (*console.Console, bool) {
	id, err := session.NewManager(cookieStore{store: s.cookies, w: w, r: r}, s.logger).ID(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to resolve session")
		http.Error(w, "Failed to resolve session", http.StatusInternalServerError)
		return nil, false
	}
	return s.consoles.Get(r.Context(), id), true
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.NotFound(w, r)
		return
	}
	c, ok := s.consoleFor(w, r)
	if !ok {
		return
	}
	s.hub.ServeSession(w, r, c.SessionID())
}
