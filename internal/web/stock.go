package web

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/ledger"
	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// StockPage handles GET /dashboard/stock. The warehouse and product query
// parameters narrow the availability table.
func (s *Server) StockPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var f store.StockFilter
	f.WarehouseID, _ = strconv.ParseInt(r.URL.Query().Get("warehouseId"), 10, 64)
	f.ExternalProductID, _ = strconv.ParseInt(r.URL.Query().Get("externalProductId"), 10, 64)

	rows, err := s.Ledger.Availability(ctx, f)
	if err != nil {
		logger.Error("listing availability", zap.Error(err))
	}
	warehouses, err := store.ListWarehouses(ctx, s.DB)
	if err != nil {
		logger.Error("listing warehouses", zap.Error(err))
	}
	products, _, err := store.ListProducts(ctx, s.DB, store.ProductFilter{})
	if err != nil {
		logger.Error("listing products", zap.Error(err))
	}

	s.Templates.Render(w, r, "stock.html", &struct {
		PageData
		Rows       []model.Availability
		Warehouses []model.Warehouse
		Products   []model.ExternalProduct
		Filter     store.StockFilter
	}{
		PageData:   pageData(r, "Stock", "stock"),
		Rows:       rows,
		Warehouses: warehouses,
		Products:   products,
		Filter:     f,
	})
}

// StockAdjustSubmit handles POST /dashboard/stock/adjust. deltaOnHand is
// required, deltaReserved defaults to 0. The optional "return" field names
// the page to go back to.
func (s *Server) StockAdjustSubmit(w http.ResponseWriter, r *http.Request) {
	back, _, _ := strings.Cut(r.FormValue("return"), "?")
	if !strings.HasPrefix(back, "/dashboard/") {
		back = "/dashboard/stock"
	}

	req := ledger.AdjustRequest{
		Reason:   strings.TrimSpace(r.FormValue("reason")),
		Metadata: map[string]any{"via": "dashboard"},
	}
	var err error
	if req.WarehouseID, err = formInt(r, "warehouseId"); err != nil || req.WarehouseID <= 0 {
		redirectError(w, r, back, "warehouse is required")
		return
	}
	if req.ExternalProductID, err = formInt(r, "externalProductId"); err != nil || req.ExternalProductID <= 0 {
		redirectError(w, r, back, "product is required")
		return
	}
	if strings.TrimSpace(r.FormValue("deltaOnHand")) == "" {
		redirectError(w, r, back, "deltaOnHand is required")
		return
	}
	if req.DeltaOnHand, err = formInt(r, "deltaOnHand"); err != nil {
		redirectError(w, r, back, err.Error())
		return
	}
	if req.DeltaReserved, err = formInt(r, "deltaReserved"); err != nil {
		redirectError(w, r, back, err.Error())
		return
	}
	if req.Reason == "" {
		req.Reason = "dashboard adjustment"
	}

	level, err := s.Ledger.Adjust(r.Context(), req)
	if err != nil {
		redirectError(w, r, back, failureMessage(r, "stock level", err))
		return
	}

	redirectNotice(w, r, back, "Stock adjusted: on hand "+strconv.FormatInt(level.OnHand, 10)+
		", reserved "+strconv.FormatInt(level.Reserved, 10)+".")
}
