package api

import (
	"net/http"

	"github.com/erazemk/logistika/internal/ledger"
	"github.com/erazemk/logistika/internal/store"
)

// StockHandler handles stock level and availability endpoints.
type StockHandler struct {
	Ledger *ledger.Service
}

type adjustStockRequest struct {
	WarehouseID       int64  `json:"warehouseId" validate:"required,gt=0"`
	ExternalProductID int64  `json:"externalProductId" validate:"required,gt=0"`
	DeltaOnHand       *int64 `json:"deltaOnHand" validate:"required"`
	DeltaReserved     int64  `json:"deltaReserved"`
	Reason            string `json:"reason" validate:"max=500"`
}

func stockFilter(w http.ResponseWriter, r *http.Request) (store.StockFilter, bool) {
	wid, ok := queryID(w, r, "warehouseId")
	if !ok {
		return store.StockFilter{}, false
	}
	pid, ok := queryID(w, r, "externalProductId")
	if !ok {
		return store.StockFilter{}, false
	}
	return store.StockFilter{WarehouseID: wid, ExternalProductID: pid}, true
}

// List handles GET /v1/stock.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := stockFilter(w, r)
	if !ok {
		return
	}
	levels, err := h.Ledger.Levels(r.Context(), f)
	if err != nil {
		writeStoreError(w, r, "stock level", err)
		return
	}
	jsonData(w, http.StatusOK, levels)
}

// Adjust handles POST /v1/stock/adjust.
func (h *StockHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if !decodeValid(w, r, &req) {
		return
	}

	level, err := h.Ledger.Adjust(r.Context(), ledger.AdjustRequest{
		WarehouseID:       req.WarehouseID,
		ExternalProductID: req.ExternalProductID,
		DeltaOnHand:       *req.DeltaOnHand,
		DeltaReserved:     req.DeltaReserved,
		Reason:            req.Reason,
	})
	if err != nil {
		writeStoreError(w, r, "stock level", err)
		return
	}
	jsonData(w, http.StatusOK, level)
}

// Availability handles GET /v1/availability.
func (h *StockHandler) Availability(w http.ResponseWriter, r *http.Request) {
	f, ok := stockFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.Ledger.Availability(r.Context(), f)
	if err != nil {
		writeStoreError(w, r, "stock level", err)
		return
	}
	jsonData(w, http.StatusOK, rows)
}
