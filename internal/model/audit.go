package model

import (
	"encoding/json"
	"time"
)

// AuditChanges holds the before and after snapshots of an entity.
type AuditChanges struct {
	Before any `json:"before,omitempty"`
	After  any `json:"after,omitempty"`
}

// AuditEntry is one row of the local audit log.
type AuditEntry struct {
	ID         int64           `json:"id"`
	UserID     *string         `json:"userId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Changes    json.RawMessage `json:"changes"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"createdAt"`
}
