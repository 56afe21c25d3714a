package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jogardn/shop-console/internal/config"
	"github.com/jogardn/shop-console/internal/middleware"
	"github.com/jogardn/shop-console/internal/mockshop"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.Logging)

	store := mockshop.NewStore()
	if cfg.Mock.Seed {
		demo := mockshop.DemoProducts()
		store.Seed(demo...)
		logger.WithField("products", len(demo)).Info("Seeded demo catalog")
	}

	router := mockshop.NewServer(store, logger).Router()

	srv := &http.Server{
		Addr:         ":" + cfg.Mock.Port,
		Handler:      middleware.CORS()(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Mock.Port).Info("Starting shop API mock")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down shop API mock...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}
