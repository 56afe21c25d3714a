package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/jogardn/shop-console/internal/circuitbreaker"
	"github.com/jogardn/shop-console/internal/config"
	"github.com/jogardn/shop-console/internal/events"
	"github.com/jogardn/shop-console/internal/shopapi"
	"github.com/jogardn/shop-console/internal/web"
	"github.com/jogardn/shop-console/internal/websocket"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	breakers := circuitbreaker.NewManager(logger)
	var clientOpts []shopapi.Option
	if cfg.Breaker.MaxFailures > 0 {
		cb := breakers.GetOrCreate("shop-api", circuitbreaker.Config{
			MaxFailures: cfg.Breaker.MaxFailures,
			Timeout:     cfg.Breaker.Timeout,
			IsFailure:   shopapi.IsOutage,
			IsIgnored:   shopapi.IsCanceled,
		})
		clientOpts = append(clientOpts, shopapi.WithCircuitBreaker(cb))
	}
	client := shopapi.NewClient(cfg.Console.ShopAPIURL, logger, clientOpts...)

	wsHub := websocket.NewHub(logger)
	go wsHub.Run(ctx)

	opts := web.Options{
		SessionKey:    []byte(cfg.Console.SessionKey),
		SecureCookies: cfg.Console.SecureCookies,
		CSRF:          cfg.Console.CSRF,
		IdleTimeout:   cfg.Console.IdleTimeout,
		MaxConsoles:   cfg.Console.MaxSessions,
		Hub:           wsHub,
		Breakers:      breakers,
	}
	if cfg.Console.SessionKey == "" {
		opts.SessionKey = securecookie.GenerateRandomKey(32)
		logger.Warn("SESSION_KEY not set - sessions will not survive a restart")
	}

	if cfg.KafkaEnabled() {
		producer, err := events.NewActivityProducer(cfg.Kafka.Brokers, cfg.Kafka.ActivityTopic, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create activity producer")
		}
		defer producer.Close()
		opts.Activity = producer
		logger.WithField("topic", cfg.Kafka.ActivityTopic).Info("Activity feed enabled")
	} else {
		logger.Info("KAFKA_BROKERS not configured - activity feed disabled")
	}

	server, err := web.NewServer(client, opts, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create console server")
	}
	defer server.Close()

	srv := &http.Server{
		Addr:        ":" + cfg.Console.Port,
		Handler:     server.Handler(),
		ReadTimeout: 15 * time.Second,
		// Writes stay unbounded for websocket connections
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Console.Port,
			"shop_api": cfg.Console.ShopAPIURL,
		}).Info("Starting console server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}
