package api

import (
	"net/http"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/ledger"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(database *db.DB, recorder *audit.Recorder) http.Handler {
	mux := http.NewServeMux()

	stockHandler := &StockHandler{Ledger: &ledger.Service{DB: database, Audit: recorder}}
	catalogHandler := &CatalogHandler{DB: database, Audit: recorder}
	warehousesHandler := &WarehousesHandler{DB: database, Audit: recorder}
	mappingsHandler := &MappingsHandler{DB: database, Audit: recorder}
	shipmentsHandler := &ShipmentsHandler{DB: database, Audit: recorder}
	apiKeysHandler := &APIKeysHandler{DB: database, Audit: recorder}
	auditHandler := &AuditHandler{DB: database}
	serviceHandler := &ServiceHandler{DB: database}

	// Service.
	mux.HandleFunc("GET /{$}", serviceHandler.Info)
	mux.HandleFunc("GET /healthz", serviceHandler.Health)

	// Stock ledger.
	mux.HandleFunc("GET /v1/stock", stockHandler.List)
	mux.HandleFunc("POST /v1/stock/adjust", stockHandler.Adjust)
	mux.HandleFunc("GET /v1/availability", stockHandler.Availability)

	// Catalog.
	mux.HandleFunc("GET /v1/catalog", catalogHandler.List)
	mux.HandleFunc("POST /v1/catalog", catalogHandler.Create)
	mux.HandleFunc("GET /v1/catalog/{id}", catalogHandler.Get)
	mux.HandleFunc("PUT /v1/catalog/{id}", catalogHandler.Update)
	mux.HandleFunc("DELETE /v1/catalog/{id}", catalogHandler.Delete)
	mux.HandleFunc("PUT /v1/catalog/{id}/image", catalogHandler.UploadImage)
	mux.HandleFunc("GET /v1/catalog/{id}/image", catalogHandler.GetImage)

	// Warehouses.
	mux.HandleFunc("GET /v1/warehouses", warehousesHandler.List)
	mux.HandleFunc("POST /v1/warehouses", warehousesHandler.Create)
	mux.HandleFunc("GET /v1/warehouses/{id}", warehousesHandler.Get)
	mux.HandleFunc("PUT /v1/warehouses/{id}", warehousesHandler.Update)
	mux.HandleFunc("DELETE /v1/warehouses/{id}", warehousesHandler.Delete)

	// Mappings.
	mux.HandleFunc("GET /v1/mappings/internal-to-external", mappingsHandler.List)
	mux.HandleFunc("POST /v1/mappings/internal-to-external", mappingsHandler.Create)
	mux.HandleFunc("GET /v1/mappings/internal-to-external/{id}", mappingsHandler.Get)
	mux.HandleFunc("DELETE /v1/mappings/internal-to-external/{id}", mappingsHandler.Delete)

	// Shipments.
	mux.HandleFunc("GET /v1/shipments", shipmentsHandler.List)
	mux.HandleFunc("POST /v1/shipments", shipmentsHandler.Create)
	mux.HandleFunc("GET /v1/shipments/{id}", shipmentsHandler.Get)
	mux.HandleFunc("PUT /v1/shipments/{id}", shipmentsHandler.Update)
	mux.HandleFunc("PUT /v1/shipments/{id}/status", shipmentsHandler.UpdateStatus)
	mux.HandleFunc("GET /v1/shipments/{id}/events", shipmentsHandler.ListEvents)
	mux.HandleFunc("POST /v1/shipments/{id}/events", shipmentsHandler.AddEvent)

	// API keys.
	mux.HandleFunc("GET /v1/api-keys", apiKeysHandler.List)
	mux.HandleFunc("POST /v1/api-keys", apiKeysHandler.Create)
	mux.HandleFunc("POST /v1/api-keys/verify", apiKeysHandler.Verify)
	mux.HandleFunc("PUT /v1/api-keys/{id}", apiKeysHandler.Update)
	mux.HandleFunc("DELETE /v1/api-keys/{id}", apiKeysHandler.Revoke)

	// Audit.
	mux.HandleFunc("GET /v1/audit", auditHandler.List)

	// Unknown /v1 paths answer in the JSON error shape.
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, kindNotFound, "route not found")
	})

	return RecoverMiddleware(mux)
}
