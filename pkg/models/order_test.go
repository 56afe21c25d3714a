package models

import (
	"errors"
	"testing"
)

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses {
		got, err := ParseOrderStatus(string(status))
		if err != nil {
			t.Errorf("Unexpected error for %s: %v", status, err)
		}
		if got != status {
			t.Errorf("Expected %s, got %s", status, got)
		}
	}

	if _, err := ParseOrderStatus(" shipped "); err != nil {
		t.Errorf("Expected surrounding spaces to be ignored, got %v", err)
	}

	if _, err := ParseOrderStatus("lost"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}
}

func TestOrderStatusColor(t *testing.T) {
	tests := map[OrderStatus]string{
		OrderStatusNew:        "primary",
		OrderStatusProcessing: "warning",
		OrderStatusShipped:    "info",
		OrderStatusDelivered:  "success",
		OrderStatusCancelled:  "danger",
		OrderStatus("other"):  "secondary",
	}

	for status, color := range tests {
		if got := status.Color(); got != color {
			t.Errorf("Expected %s for %s, got %s", color, status, got)
		}
	}
}

func TestStatusList(t *testing.T) {
	expected := "new, processing, shipped, delivered, cancelled"
	if got := StatusList(); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
