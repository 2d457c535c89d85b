package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

// StockFilter narrows ListStock. Zero fields match everything; set fields
// are combined with AND.
type StockFilter struct {
	WarehouseID       int64
	ExternalProductID int64
}

// StockAdjustment is a signed change to a stock level's counters.
type StockAdjustment struct {
	WarehouseID       int64
	ExternalProductID int64
	DeltaOnHand       int64
	DeltaReserved     int64
}

const stockColumns = `s.id, s.warehouse_id, s.external_product_id, s.on_hand, s.reserved, s.updated_at,
	w.code, p.sku`

const stockFrom = ` FROM stock_levels s
	JOIN warehouses w ON w.id = s.warehouse_id
	JOIN external_products p ON p.id = s.external_product_id`

func scanStock(row interface{ Scan(...any) error }) (*model.StockLevel, error) {
	s := &model.StockLevel{}
	err := row.Scan(&s.ID, &s.WarehouseID, &s.ExternalProductID, &s.OnHand, &s.Reserved, &s.UpdatedAt,
		&s.WarehouseCode, &s.ProductSKU)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListStock returns stock levels matching f, ordered by warehouse then product.
func ListStock(ctx context.Context, conn db.Querier, f StockFilter) ([]model.StockLevel, error) {
	var conds []string
	var args []any
	if f.WarehouseID != 0 {
		conds = append(conds, "s.warehouse_id = ?")
		args = append(args, f.WarehouseID)
	}
	if f.ExternalProductID != 0 {
		conds = append(conds, "s.external_product_id = ?")
		args = append(args, f.ExternalProductID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := conn.QueryContext(ctx,
		`SELECT `+stockColumns+stockFrom+where+` ORDER BY w.code, p.sku`, args...,
	)
	if err != nil {
		return nil, wrap("listing stock", err)
	}
	defer rows.Close()

	levels := []model.StockLevel{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, wrap("scanning stock level", err)
		}
		levels = append(levels, *s)
	}
	return levels, wrap("listing stock", rows.Err())
}

// GetStock returns the stock level for a (warehouse, product) pair.
func GetStock(ctx context.Context, conn db.Querier, warehouseID, productID int64) (*model.StockLevel, error) {
	s, err := scanStock(conn.QueryRowContext(ctx,
		`SELECT `+stockColumns+stockFrom+
			` WHERE s.warehouse_id = ? AND s.external_product_id = ?`,
		warehouseID, productID,
	))
	if err != nil {
		return nil, wrap("getting stock level", err)
	}
	return s, nil
}

// errStockRaced reports that the pair was created or removed by another
// transaction between the locked read and the upsert.
var errStockRaced = errors.New("stock level changed concurrently")

// AdjustStock applies adj to the (warehouse, product) pair in a single
// transaction and returns the level before the change (nil if the pair did
// not exist) and after it. Both counters are clamped at zero and saturate at
// math.MaxInt64 inside the database, so concurrent adjustments of the same
// pair never lose updates.
func AdjustStock(ctx context.Context, conn *db.DB, adj StockAdjustment) (before, after *model.StockLevel, err error) {
	for attempt := 1; ; attempt++ {
		before, after, err = adjustStockOnce(ctx, conn, adj)
		if errors.Is(err, errStockRaced) && attempt < 3 {
			continue
		}
		return before, after, err
	}
}

func adjustStockOnce(ctx context.Context, conn *db.DB, adj StockAdjustment) (before, after *model.StockLevel, err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Postgres locks the existing row so the audited snapshot is the state
	// the upsert changes. SQLite transactions are already serialized.
	lock, inserted := "", "1"
	if conn.Dialect == db.Postgres {
		lock, inserted = " FOR UPDATE OF s", "(xmax = 0)"
	}

	before, err = scanStock(tx.QueryRowContext(ctx,
		`SELECT `+stockColumns+stockFrom+
			` WHERE s.warehouse_id = ? AND s.external_product_id = ?`+lock,
		adj.WarehouseID, adj.ExternalProductID,
	))
	if err = wrap("getting stock level", err); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}
	if errors.Is(err, ErrNotFound) {
		before = nil
	}

	var id int64
	var created bool
	err = tx.QueryRowContext(ctx,
		`INSERT INTO stock_levels (warehouse_id, external_product_id, on_hand, reserved, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (warehouse_id, external_product_id) DO UPDATE SET
		     on_hand = CASE
		         WHEN ? > 9223372036854775807 - stock_levels.on_hand THEN 9223372036854775807
		         WHEN stock_levels.on_hand + ? < 0 THEN 0
		         ELSE stock_levels.on_hand + ? END,
		     reserved = CASE
		         WHEN ? > 9223372036854775807 - stock_levels.reserved THEN 9223372036854775807
		         WHEN stock_levels.reserved + ? < 0 THEN 0
		         ELSE stock_levels.reserved + ? END,
		     updated_at = CURRENT_TIMESTAMP
		 RETURNING id, `+inserted,
		adj.WarehouseID, adj.ExternalProductID,
		max(adj.DeltaOnHand, 0), max(adj.DeltaReserved, 0),
		adj.DeltaOnHand, adj.DeltaOnHand, adj.DeltaOnHand,
		adj.DeltaReserved, adj.DeltaReserved, adj.DeltaReserved,
	).Scan(&id, &created)
	if err != nil {
		return nil, nil, wrap("adjusting stock", err)
	}
	if conn.Dialect == db.Postgres && created != (before == nil) {
		return nil, nil, errStockRaced
	}

	after, err = GetStock(ctx, tx, adj.WarehouseID, adj.ExternalProductID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing stock adjustment: %w", err)
	}
	return before, after, nil
}
