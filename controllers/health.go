package controllers

import (
	"context"
	"net/http"
	"time"

	"go-storefront/store"
	"go-storefront/utils"
)

// HealthController reports whether the store is reachable
type HealthController struct {
	Store   store.Pinger
	Timeout time.Duration
}

// Health answers GET /health
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hc.Timeout)
	defer cancel()

	status, code := "healthy", http.StatusOK
	if err := hc.Store.Ping(ctx); err != nil {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	utils.WriteJSON(w, code, map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
