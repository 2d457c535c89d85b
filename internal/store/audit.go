package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
)

// AuditFilter narrows ListAudit.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Limit      int
}

// DefaultAuditLimit caps ListAudit when no limit is given.
const DefaultAuditLimit = 100

// InsertAudit appends an entry to the local audit log. Changes and metadata
// must already be JSON encoded.
func InsertAudit(ctx context.Context, conn db.Querier, e model.AuditEntry) error {
	if len(e.Changes) == 0 {
		e.Changes = json.RawMessage("{}")
	}
	if len(e.Metadata) == 0 {
		e.Metadata = json.RawMessage("{}")
	}
	_, err := conn.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, entity_type, entity_id, changes, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Action, e.EntityType, e.EntityID, string(e.Changes), string(e.Metadata),
	)
	return wrap("inserting audit entry", err)
}

// ListAudit returns audit entries matching f, newest first.
func ListAudit(ctx context.Context, conn db.Querier, f AuditFilter) ([]model.AuditEntry, error) {
	var conds []string
	var args []any
	if f.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, f.EntityType)
	}
	if f.EntityID != "" {
		conds = append(conds, "entity_id = ?")
		args = append(args, f.EntityID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	rows, err := conn.QueryContext(ctx,
		`SELECT id, user_id, action, entity_type, entity_id, changes, metadata, created_at
		 FROM audit_log`+where+` ORDER BY id DESC LIMIT ?`,
		append(args, limit)...,
	)
	if err != nil {
		return nil, wrap("listing audit log", err)
	}
	defer rows.Close()

	entries := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		var userID sql.NullString
		var changes, metadata string
		if err := rows.Scan(&e.ID, &userID, &e.Action, &e.EntityType, &e.EntityID,
			&changes, &metadata, &e.CreatedAt); err != nil {
			return nil, wrap("scanning audit entry", err)
		}
		if userID.Valid {
			e.UserID = &userID.String
		}
		e.Changes = json.RawMessage(changes)
		e.Metadata = json.RawMessage(metadata)
		entries = append(entries, e)
	}
	return entries, wrap("listing audit log", rows.Err())
}
