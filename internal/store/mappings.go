package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

// MappingFilter narrows ListMappings. Set fields are combined with AND.
type MappingFilter struct {
	InternalItemID    string
	ExternalProductID int64
}

func scanMapping(row interface{ Scan(...any) error }) (*model.Mapping, error) {
	m := &model.Mapping{}
	var note sql.NullString
	if err := row.Scan(&m.ID, &m.InternalItemID, &m.ExternalProductID, &note, &m.CreatedAt); err != nil {
		return nil, err
	}
	if note.Valid {
		m.Note = &note.String
	}
	return m, nil
}

// CreateMapping links an internal item to an external product. The internal
// id is opaque and not checked against anything.
func CreateMapping(ctx context.Context, conn db.Querier, internalItemID string, productID int64, note *string) (*model.Mapping, error) {
	var id int64
	err := conn.QueryRowContext(ctx,
		`INSERT INTO internal_to_external_mappings (internal_item_id, external_product_id, note)
		 VALUES (?, ?, ?) RETURNING id`,
		internalItemID, productID, note,
	).Scan(&id)
	if err != nil {
		return nil, wrap("creating mapping", err)
	}
	return GetMapping(ctx, conn, id)
}

// GetMapping returns a mapping by ID.
func GetMapping(ctx context.Context, conn db.Querier, id int64) (*model.Mapping, error) {
	m, err := scanMapping(conn.QueryRowContext(ctx,
		`SELECT id, internal_item_id, external_product_id, note, created_at
		 FROM internal_to_external_mappings WHERE id = ?`, id,
	))
	if err != nil {
		return nil, wrap("getting mapping", err)
	}
	return m, nil
}

// ListMappings returns mappings matching f, newest first.
func ListMappings(ctx context.Context, conn db.Querier, f MappingFilter) ([]model.Mapping, error) {
	var conds []string
	var args []any
	if f.InternalItemID != "" {
		conds = append(conds, "internal_item_id = ?")
		args = append(args, f.InternalItemID)
	}
	if f.ExternalProductID != 0 {
		conds = append(conds, "external_product_id = ?")
		args = append(args, f.ExternalProductID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := conn.QueryContext(ctx,
		`SELECT id, internal_item_id, external_product_id, note, created_at
		 FROM internal_to_external_mappings`+where+` ORDER BY created_at DESC, id DESC`, args...,
	)
	if err != nil {
		return nil, wrap("listing mappings", err)
	}
	defer rows.Close()

	mappings := []model.Mapping{}
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, wrap("scanning mapping", err)
		}
		mappings = append(mappings, *m)
	}
	return mappings, wrap("listing mappings", rows.Err())
}

// DeleteMapping removes a mapping and returns the deleted row.
func DeleteMapping(ctx context.Context, conn db.Querier, id int64) (*model.Mapping, error) {
	m, err := GetMapping(ctx, conn, id)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx,
		`DELETE FROM internal_to_external_mappings WHERE id = ?`, id,
	); err != nil {
		return nil, wrap("deleting mapping", err)
	}
	return m, nil
}
