// Package ledger owns stock counters: clamped adjustments of on-hand and
// reserved quantities per (warehouse, product) pair, and the availability
// view derived from them.
package ledger

import (
	"context"
	"maps"
	"strconv"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// AdjustRequest is a signed change to one stock level.
type AdjustRequest struct {
	WarehouseID       int64
	ExternalProductID int64
	DeltaOnHand       int64
	DeltaReserved     int64
	Reason            string

	// Metadata is merged into the audit entry's metadata.
	Metadata map[string]any
}

// Service applies stock adjustments and records them in the audit trail.
type Service struct {
	DB    *db.DB
	Audit *audit.Recorder
}

// Adjust applies req and returns the resulting stock level. A missing pair
// is created with both counters clamped at zero; an existing pair has the
// deltas added and clamped. Unknown warehouses or products yield
// store.ErrForeignKey.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*model.StockLevel, error) {
	before, after, err := store.AdjustStock(ctx, s.DB, store.StockAdjustment{
		WarehouseID:       req.WarehouseID,
		ExternalProductID: req.ExternalProductID,
		DeltaOnHand:       req.DeltaOnHand,
		DeltaReserved:     req.DeltaReserved,
	})
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{After: after}
	if before != nil {
		changes.Before = before
	}
	metadata := map[string]any{"source": audit.Source}
	maps.Copy(metadata, req.Metadata)
	if req.Reason != "" {
		metadata["reason"] = req.Reason
	}
	s.Audit.Record(ctx, audit.Entry{
		Action:     "stock_adjust",
		EntityType: "stock_levels",
		EntityID:   strconv.FormatInt(after.ID, 10),
		Changes:    changes,
		Metadata:   metadata,
	})

	return after, nil
}

// Levels returns stock levels matching f.
func (s *Service) Levels(ctx context.Context, f store.StockFilter) ([]model.StockLevel, error) {
	return store.ListStock(ctx, s.DB, f)
}

// Availability returns the availability view of stock levels matching f.
func (s *Service) Availability(ctx context.Context, f store.StockFilter) ([]model.Availability, error) {
	levels, err := store.ListStock(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	return Project(levels), nil
}

// Project derives availability from stock levels. Available is on-hand
// minus reserved, never below zero.
func Project(levels []model.StockLevel) []model.Availability {
	out := make([]model.Availability, 0, len(levels))
	for _, l := range levels {
		out = append(out, model.Availability{
			WarehouseID:       l.WarehouseID,
			ExternalProductID: l.ExternalProductID,
			OnHand:            l.OnHand,
			Reserved:          l.Reserved,
			Available:         max(0, l.OnHand-l.Reserved),
			UpdatedAt:         l.UpdatedAt,
			WarehouseCode:     l.WarehouseCode,
			ProductSKU:        l.ProductSKU,
		})
	}
	return out
}
