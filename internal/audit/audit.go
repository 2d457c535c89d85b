// Package audit records who changed what. Every mutation produces an Entry
// that is written to the local audit log and, when configured, forwarded to
// an external audit service.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// Source is stamped into the metadata of every entry.
const Source = "logistika"

// Entry describes one change to one entity.
type Entry struct {
	UserID     *string        `json:"userId"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Changes    Changes        `json:"changes"`
	Metadata   map[string]any `json:"metadata"`
}

// Changes holds entity snapshots. Before is nil on create, After on delete.
type Changes struct {
	Before any `json:"before,omitempty"`
	After  any `json:"after,omitempty"`
}

// Emitter delivers entries somewhere.
type Emitter interface {
	Emit(ctx context.Context, e Entry) error
}

// Recorder emits entries on a best-effort basis. Failures are logged and
// never reach the caller, so a broken audit sink cannot fail a mutation that
// has already been committed.
type Recorder struct {
	emitter Emitter
	logger  *zap.Logger
}

// NewRecorder creates a recorder. A nil logger discards failure logs.
func NewRecorder(emitter Emitter, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{emitter: emitter, logger: logger}
}

// Record emits e, filling in the source metadata.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.emitter == nil {
		return
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	if _, ok := e.Metadata["source"]; !ok {
		e.Metadata["source"] = Source
	}

	if err := r.emitter.Emit(ctx, e); err != nil {
		r.logger.Error("audit emit failed",
			zap.String("action", e.Action),
			zap.String("entity_type", e.EntityType),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
	}
}

// StoreEmitter writes entries to the audit_log table.
type StoreEmitter struct {
	DB *db.DB
}

// Emit implements Emitter.
func (s StoreEmitter) Emit(ctx context.Context, e Entry) error {
	changes, err := json.Marshal(e.Changes)
	if err != nil {
		return fmt.Errorf("encoding changes: %w", err)
	}
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	return store.InsertAudit(ctx, s.DB, model.AuditEntry{
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Changes:    changes,
		Metadata:   metadata,
	})
}

// Multi fans an entry out to several emitters. Every emitter is tried; the
// errors are joined.
type Multi []Emitter

// Emit implements Emitter.
func (m Multi) Emit(ctx context.Context, e Entry) error {
	var errs []error
	for _, em := range m {
		if err := em.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
