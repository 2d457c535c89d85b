package api

import (
	"net/http"

	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/store"
)

// AuditHandler exposes the local audit log.
type AuditHandler struct {
	DB *db.DB
}

// List handles GET /v1/audit.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	q := r.URL.Query()
	entries, err := store.ListAudit(r.Context(), h.DB, store.AuditFilter{
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		Limit:      min(limit, 1000),
	})
	if err != nil {
		writeStoreError(w, r, "audit entry", err)
		return
	}
	jsonData(w, http.StatusOK, entries)
}
