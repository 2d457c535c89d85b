package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// recentLimit caps the lists shown on the overview.
const recentLimit = 10

type statusCount struct {
	Status string
	Count  int
}

// Overview handles GET /dashboard/.
func (s *Server) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	_, productCount, err := store.ListProducts(ctx, s.DB, store.ProductFilter{Limit: 1})
	if err != nil {
		logger.Error("counting products for overview", zap.Error(err))
	}
	warehouses, err := store.ListWarehouses(ctx, s.DB)
	if err != nil {
		logger.Error("listing warehouses for overview", zap.Error(err))
	}
	shipments, err := store.ListShipments(ctx, s.DB, store.ShipmentFilter{})
	if err != nil {
		logger.Error("listing shipments for overview", zap.Error(err))
	}
	availability, err := s.Ledger.Availability(ctx, store.StockFilter{})
	if err != nil {
		logger.Error("listing availability for overview", zap.Error(err))
	}
	recent, err := store.ListAudit(ctx, s.DB, store.AuditFilter{Limit: recentLimit})
	if err != nil {
		logger.Error("listing audit log for overview", zap.Error(err))
	}

	var soldOut []model.Availability
	for _, a := range availability {
		if a.Available == 0 && len(soldOut) < recentLimit {
			soldOut = append(soldOut, a)
		}
	}

	s.Templates.Render(w, r, "overview.html", &struct {
		PageData
		ProductCount   int
		WarehouseCount int
		StockRows      int
		Shipments      []statusCount
		SoldOut        []model.Availability
		RecentActivity []model.AuditEntry
	}{
		PageData:       pageData(r, "Overview", "overview"),
		ProductCount:   productCount,
		WarehouseCount: len(warehouses),
		StockRows:      len(availability),
		Shipments:      countByStatus(shipments),
		SoldOut:        soldOut,
		RecentActivity: recent,
	})
}

// countByStatus tallies shipments per status in flow order, skipping empty
// statuses.
func countByStatus(shipments []model.Shipment) []statusCount {
	counts := make(map[string]int, len(model.ShipmentStatuses))
	for _, s := range shipments {
		counts[s.Status]++
	}
	var out []statusCount
	for _, status := range model.ShipmentStatuses {
		if n := counts[status]; n > 0 {
			out = append(out, statusCount{Status: status, Count: n})
		}
	}
	return out
}
