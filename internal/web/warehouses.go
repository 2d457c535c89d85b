package web

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

type warehouseForm struct {
	Code string `form:"code" validate:"required,max=50"`
	Name string `form:"name" validate:"required,max=255"`
}

// WarehousesPage handles GET /dashboard/warehouses.
func (s *Server) WarehousesPage(w http.ResponseWriter, r *http.Request) {
	warehouses, err := store.ListWarehouses(r.Context(), s.DB)
	if err != nil {
		logging.FromContext(r.Context()).Error("listing warehouses", zap.Error(err))
	}

	s.Templates.Render(w, r, "warehouses.html", &struct {
		PageData
		Warehouses []model.Warehouse
	}{
		PageData:   pageData(r, "Warehouses", "warehouses"),
		Warehouses: warehouses,
	})
}

// WarehouseCreateSubmit handles POST /dashboard/warehouses.
func (s *Server) WarehouseCreateSubmit(w http.ResponseWriter, r *http.Request) {
	f := warehouseForm{
		Code: strings.TrimSpace(r.FormValue("code")),
		Name: strings.TrimSpace(r.FormValue("name")),
	}
	if msg := validateForm(f); msg != "" {
		redirectError(w, r, "/dashboard/warehouses", msg)
		return
	}

	wh, err := store.CreateWarehouse(r.Context(), s.DB, f.Code, f.Name)
	if err != nil {
		redirectError(w, r, "/dashboard/warehouses", failureMessage(r, "warehouse", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "warehouse_create",
		EntityType: "warehouses",
		EntityID:   strconv.FormatInt(wh.ID, 10),
		Changes:    audit.Changes{After: wh},
	})
	redirectNotice(w, r, "/dashboard/warehouses", "Warehouse "+wh.Code+" created.")
}

// WarehouseUpdateSubmit handles POST /dashboard/warehouses/{id}.
func (s *Server) WarehouseUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f := warehouseForm{
		Code: strings.TrimSpace(r.FormValue("code")),
		Name: strings.TrimSpace(r.FormValue("name")),
	}
	if msg := validateForm(f); msg != "" {
		redirectError(w, r, "/dashboard/warehouses", msg)
		return
	}

	before, err := store.GetWarehouse(r.Context(), s.DB, id)
	if err != nil {
		redirectError(w, r, "/dashboard/warehouses", failureMessage(r, "warehouse", err))
		return
	}
	after, err := store.UpdateWarehouse(r.Context(), s.DB, id, &f.Code, &f.Name)
	if err != nil {
		redirectError(w, r, "/dashboard/warehouses", failureMessage(r, "warehouse", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "warehouse_update",
		EntityType: "warehouses",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
	})
	redirectNotice(w, r, "/dashboard/warehouses", "Warehouse "+after.Code+" updated.")
}

// WarehouseDeleteSubmit handles POST /dashboard/warehouses/{id}/delete.
func (s *Server) WarehouseDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	wh, err := store.DeleteWarehouse(r.Context(), s.DB, id)
	if err != nil {
		redirectError(w, r, "/dashboard/warehouses", failureMessage(r, "warehouse", err))
		return
	}

	s.record(r, audit.Entry{
		Action:     "warehouse_delete",
		EntityType: "warehouses",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: wh},
	})
	redirectNotice(w, r, "/dashboard/warehouses", "Warehouse "+wh.Code+" deleted.")
}
