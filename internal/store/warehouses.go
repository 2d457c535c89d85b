package store

import (
	"context"
	"strings"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

func scanWarehouse(row interface{ Scan(...any) error }) (*model.Warehouse, error) {
	w := &model.Warehouse{}
	if err := row.Scan(&w.ID, &w.Code, &w.Name, &w.CreatedAt); err != nil {
		return nil, err
	}
	return w, nil
}

// CreateWarehouse inserts a warehouse.
func CreateWarehouse(ctx context.Context, conn db.Querier, code, name string) (*model.Warehouse, error) {
	var id int64
	err := conn.QueryRowContext(ctx,
		`INSERT INTO warehouses (code, name) VALUES (?, ?) RETURNING id`,
		code, name,
	).Scan(&id)
	if err != nil {
		return nil, wrap("creating warehouse", err)
	}
	return GetWarehouse(ctx, conn, id)
}

// GetWarehouse returns a warehouse by ID.
func GetWarehouse(ctx context.Context, conn db.Querier, id int64) (*model.Warehouse, error) {
	w, err := scanWarehouse(conn.QueryRowContext(ctx,
		`SELECT id, code, name, created_at FROM warehouses WHERE id = ?`, id,
	))
	if err != nil {
		return nil, wrap("getting warehouse", err)
	}
	return w, nil
}

// ListWarehouses returns all warehouses ordered by code.
func ListWarehouses(ctx context.Context, conn db.Querier) ([]model.Warehouse, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT id, code, name, created_at FROM warehouses ORDER BY code`,
	)
	if err != nil {
		return nil, wrap("listing warehouses", err)
	}
	defer rows.Close()

	warehouses := []model.Warehouse{}
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, wrap("scanning warehouse", err)
		}
		warehouses = append(warehouses, *w)
	}
	return warehouses, wrap("listing warehouses", rows.Err())
}

// UpdateWarehouse changes the given fields of a warehouse. Nil fields are left alone.
func UpdateWarehouse(ctx context.Context, conn db.Querier, id int64, code, name *string) (*model.Warehouse, error) {
	var sets []string
	var args []any
	if code != nil {
		sets = append(sets, "code = ?")
		args = append(args, *code)
	}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if len(sets) == 0 {
		return GetWarehouse(ctx, conn, id)
	}

	res, err := conn.ExecContext(ctx,
		`UPDATE warehouses SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		append(args, id)...,
	)
	if err != nil {
		return nil, wrap("updating warehouse", err)
	}
	if err := mustAffect(res); err != nil {
		return nil, wrap("updating warehouse", err)
	}
	return GetWarehouse(ctx, conn, id)
}

// DeleteWarehouse removes a warehouse and its stock levels, returning the
// deleted row.
func DeleteWarehouse(ctx context.Context, conn db.Querier, id int64) (*model.Warehouse, error) {
	w, err := GetWarehouse(ctx, conn, id)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM warehouses WHERE id = ?`, id); err != nil {
		return nil, wrap("deleting warehouse", err)
	}
	return w, nil
}
