package api

import (
	"net/http"
	"time"

	"github.com/erazemk/logistika/internal/db"
)

// Version is reported by the service info endpoint.
var Version = "dev"

// ServiceHandler answers the service info and health endpoints.
type ServiceHandler struct {
	DB *db.DB
}

// Info handles GET /.
func (h *ServiceHandler) Info(w http.ResponseWriter, r *http.Request) {
	jsonData(w, http.StatusOK, map[string]any{
		"service":  "logistika",
		"version":  Version,
		"database": h.DB.Dialect,
		"api":      "/v1",
	})
}

// Health handles GET /healthz.
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	if err := h.DB.PingContext(r.Context()); err != nil {
		loggerFrom(r.Context()).Warn("health check failed")
		jsonResponse(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"time":   now,
		})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   now,
	})
}
