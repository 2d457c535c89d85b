package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/store"
)

// WarehousesHandler handles warehouse CRUD endpoints.
type WarehousesHandler struct {
	DB    *db.DB
	Audit *audit.Recorder
}

type createWarehouseRequest struct {
	Code string `json:"code" validate:"required,max=50"`
	Name string `json:"name" validate:"required,max=255"`
}

type updateWarehouseRequest struct {
	Code *string `json:"code" validate:"omitempty,min=1,max=50"`
	Name *string `json:"name" validate:"omitempty,min=1,max=255"`
}

// List handles GET /v1/warehouses.
func (h *WarehousesHandler) List(w http.ResponseWriter, r *http.Request) {
	warehouses, err := store.ListWarehouses(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, r, "warehouse", err)
		return
	}
	jsonData(w, http.StatusOK, warehouses)
}

// Get handles GET /v1/warehouses/{id}.
func (h *WarehousesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "warehouse")
	if !ok {
		return
	}
	wh, err := store.GetWarehouse(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "warehouse", err)
		return
	}
	jsonData(w, http.StatusOK, wh)
}

// Create handles POST /v1/warehouses.
func (h *WarehousesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWarehouseRequest
	if !decodeValid(w, r, &req) {
		return
	}

	wh, err := store.CreateWarehouse(r.Context(), h.DB, req.Code, req.Name)
	if err != nil {
		writeStoreError(w, r, "warehouse", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "warehouse_create",
		EntityType: "warehouses",
		EntityID:   strconv.FormatInt(wh.ID, 10),
		Changes:    audit.Changes{After: wh},
	})
	jsonData(w, http.StatusCreated, wh)
}

// Update handles PUT /v1/warehouses/{id}.
func (h *WarehousesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "warehouse")
	if !ok {
		return
	}
	var req updateWarehouseRequest
	if !decodeValid(w, r, &req) {
		return
	}

	before, err := store.GetWarehouse(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "warehouse", err)
		return
	}
	after, err := store.UpdateWarehouse(r.Context(), h.DB, id, req.Code, req.Name)
	if err != nil {
		writeStoreError(w, r, "warehouse", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "warehouse_update",
		EntityType: "warehouses",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: before, After: after},
	})
	jsonData(w, http.StatusOK, after)
}

// Delete handles DELETE /v1/warehouses/{id}. Stock levels held in the
// warehouse are removed with it.
func (h *WarehousesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "warehouse")
	if !ok {
		return
	}
	wh, err := store.DeleteWarehouse(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, "warehouse", err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Action:     "warehouse_delete",
		EntityType: "warehouses",
		EntityID:   strconv.FormatInt(id, 10),
		Changes:    audit.Changes{Before: wh},
	})
	jsonDeleted(w, "warehouse deleted", wh)
}
