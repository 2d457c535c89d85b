package web

import (
	"net/http"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/ledger"
	webembed "github.com/erazemk/logistika/web"
)

// NewRouter creates the dashboard router. Pages live under /dashboard/ and
// assets under /static/.
func NewRouter(database *db.DB, recorder *audit.Recorder) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        database,
		Ledger:    &ledger.Service{DB: database, Audit: recorder},
		Audit:     recorder,
		Templates: templates,
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.Handle("GET /dashboard", http.RedirectHandler("/dashboard/", http.StatusMovedPermanently))
	mux.HandleFunc("GET /dashboard/{$}", s.Overview)

	mux.HandleFunc("GET /dashboard/catalog", s.CatalogPage)
	mux.HandleFunc("POST /dashboard/catalog", s.CatalogCreateSubmit)
	mux.HandleFunc("GET /dashboard/catalog/{id}", s.ProductPage)
	mux.HandleFunc("POST /dashboard/catalog/{id}", s.ProductUpdateSubmit)
	mux.HandleFunc("POST /dashboard/catalog/{id}/delete", s.ProductDeleteSubmit)
	mux.HandleFunc("POST /dashboard/catalog/{id}/image", s.ProductImageSubmit)
	mux.HandleFunc("GET /dashboard/catalog/{id}/image", s.ProductImage)

	mux.HandleFunc("GET /dashboard/warehouses", s.WarehousesPage)
	mux.HandleFunc("POST /dashboard/warehouses", s.WarehouseCreateSubmit)
	mux.HandleFunc("POST /dashboard/warehouses/{id}", s.WarehouseUpdateSubmit)
	mux.HandleFunc("POST /dashboard/warehouses/{id}/delete", s.WarehouseDeleteSubmit)

	mux.HandleFunc("GET /dashboard/stock", s.StockPage)
	mux.HandleFunc("POST /dashboard/stock/adjust", s.StockAdjustSubmit)

	mux.HandleFunc("GET /dashboard/mappings", s.MappingsPage)
	mux.HandleFunc("POST /dashboard/mappings", s.MappingCreateSubmit)
	mux.HandleFunc("POST /dashboard/mappings/{id}/delete", s.MappingDeleteSubmit)

	mux.HandleFunc("GET /dashboard/shipments", s.ShipmentsPage)
	mux.HandleFunc("POST /dashboard/shipments", s.ShipmentCreateSubmit)
	mux.HandleFunc("GET /dashboard/shipments/{id}", s.ShipmentPage)
	mux.HandleFunc("POST /dashboard/shipments/{id}/status", s.ShipmentStatusSubmit)
	mux.HandleFunc("POST /dashboard/shipments/{id}/events", s.ShipmentEventSubmit)

	mux.HandleFunc("GET /dashboard/api-keys", s.APIKeysPage)
	mux.HandleFunc("POST /dashboard/api-keys", s.APIKeyCreateSubmit)
	mux.HandleFunc("POST /dashboard/api-keys/{id}/revoke", s.APIKeyRevokeSubmit)

	mux.HandleFunc("GET /dashboard/audit", s.AuditPage)

	return RecoverMiddleware(mux), nil
}
