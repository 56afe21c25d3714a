package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestManager(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	manager := NewManager(logger)
	config := Config{MaxFailures: 1, Timeout: time.Minute}

	cb := manager.GetOrCreate("shop-api", config)
	if cb == nil {
		t.Fatal("Expected circuit breaker, got nil")
	}
	if manager.GetOrCreate("shop-api", config) != cb {
		t.Error("Expected same circuit breaker instance")
	}
	if cb.Name() != "shop-api" {
		t.Errorf("Expected breaker named after its key, got %s", cb.Name())
	}
	if manager.Get("missing") != nil {
		t.Error("Expected nil for non-existent circuit breaker")
	}

	cb.Execute(func() error { return errors.New("down") })
	if cb.State() != StateOpen {
		t.Fatalf("Expected open state, got %s", cb.State())
	}

	metrics := manager.GetAllMetrics()
	entry, ok := metrics["shop-api"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected metrics for shop-api, got %v", metrics)
	}
	if entry["state"] != "open" {
		t.Errorf("Expected open state in metrics, got %v", entry["state"])
	}

	if !manager.Reset("shop-api") {
		t.Error("Expected reset to find the breaker")
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected closed state after reset, got %s", cb.State())
	}
	if manager.Reset("missing") {
		t.Error("Expected reset of unknown breaker to report false")
	}
}
