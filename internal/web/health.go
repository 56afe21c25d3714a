package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "console",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// allServicesHealthCheck reports the console, the shop backend and, when
// configured, circuit breakers and live connections. It answers 503 when
// the backend is unhealthy.
func (s *Server) allServicesHealthCheck(w http.ResponseWriter, r *http.Request) {
	healthStatus := make(map[string]interface{})

	healthStatus["console"] = map[string]interface{}{
		"status":        "healthy",
		"service":       "console",
		"response_time": 0,
		"sessions":      s.consoles.Len(),
		"last_check":    time.Now().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := s.client.Health(ctx)
	responseTime := time.Since(start).Milliseconds()

	code := http.StatusOK
	if err == nil {
		healthStatus["shop_api"] = map[string]interface{}{
			"status":        "healthy",
			"service":       "shop_api",
			"url":           s.client.BaseURL(),
			"response_time": responseTime,
			"last_check":    time.Now().Format(time.RFC3339),
		}
	} else {
		code = http.StatusServiceUnavailable
		healthStatus["shop_api"] = map[string]interface{}{
			"status":        "unhealthy",
			"service":       "shop_api",
			"url":           s.client.BaseURL(),
			"error":         err.Error(),
			"response_time": responseTime,
			"last_check":    time.Now().Format(time.RFC3339),
		}
	}

	if s.breakers != nil {
		healthStatus["circuit_breakers"] = s.breakers.GetAllMetrics()
	}
	if s.hub != nil {
		healthStatus["websocket_clients"] = s.hub.GetClientCount()
	}

	respondWithJSON(w, code, healthStatus)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
