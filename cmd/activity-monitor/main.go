package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jogardn/shop-console/internal/config"
	"github.com/jogardn/shop-console/internal/events"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := config.NewLogger(cfg.Logging)

	if !cfg.KafkaEnabled() {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	handler := events.ActivityHandlerFunc(func(event events.ActivityEvent) error {
		logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"type":       event.Type,
			"session_id": event.SessionID,
			"event_time": event.EventTime,
			"data":       string(event.Data),
		}).Info("Console activity")
		return nil
	})

	consumer, err := events.NewActivityConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ActivityTopic, handler, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create activity consumer")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.WithError(err).Error("Activity consumer stopped")
		}
	}()

	logger.WithField("topic", cfg.Kafka.ActivityTopic).Info("Activity monitor started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down activity monitor...")
}
